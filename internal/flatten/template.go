package flatten

import (
	"strings"
)

// Page blocks of the per-chapter layout. Each returns text ending in a newline.

func titlePageBlock(title string) string {
	var b strings.Builder
	b.WriteString("% --- PAGE 1: Dedicated Title Page (big, centered) ---\n")
	b.WriteString("\\thispagestyle{empty}\n")
	b.WriteString("\\begin{center}\n")
	b.WriteString("    \\vspace*{\\fill}\n")
	b.WriteString("    {\\fontsize{48pt}{62pt}\\selectfont\\bfseries\\raggedright\n")
	b.WriteString("    \\parbox{0.8\\textwidth}{\\centering\n")
	b.WriteString(strings.TrimRight(title, "\n"))
	b.WriteString("\n    }}\n")
	b.WriteString("    \\vspace*{\\fill}\n")
	b.WriteString("\\end{center}\n")
	b.WriteString("\\clearpage\n")
	return b.String()
}

func overviewPageBlock(title, summary, topicmap, quote string) string {
	body := []string{
		"% --- PAGE 3: Title + Summary + Topicmap + Quote ---",
		"\\thispagestyle{empty}",
		"\\begin{center}",
		"    \\vspace*{\\fill}",
		"    {\\Huge \\bfseries ",
		strings.TrimRight(title, " \t\r\n"),
		"    }",
		"",
		"    \\vspace{2em}",
		"    \\begin{minipage}{0.8\\textwidth}",
		"        {\\fontsize{13pt}{18pt}\\selectfont\\color{black}",
		"        \\justifying",
		strings.TrimRight(summary, " \t\r\n"),
		"        }",
		"    \\end{minipage}",
		"",
		"    \\vspace{2em}",
		"    \\chapterseparator",
		"    \\vspace{2em}",
	}
	if topicmap != "" {
		body = append(body,
			"    \\begin{minipage}{0.7\\textwidth}",
			"        \\centering",
			topicmap,
			"    \\end{minipage}",
		)
	}
	body = append(body, "    \\vfill")
	if quote != "" {
		body = append(body,
			"    \\vspace{2em}",
			"    \\begin{minipage}{0.8\\textwidth}",
			"        \\centering \\itshape",
			quote,
			"    \\end{minipage}",
		)
	}
	body = append(body,
		"    \\vspace*{\\fill}",
		"\\end{center}",
		"\\clearpage",
	)
	return strings.Join(body, "\n") + "\n"
}

func tocEntryLines(titleFirst, summaryFirst string) []string {
	return []string{
		"% --- Table of Contents entry (title + summary first lines) ---",
		"\\addcontentsline{toc}{chapter}{%",
		"  \\protect\\numberline{\\thechapter}" + titleFirst + "\\\\",
		"  {\\normalfont\\small\\textit{\\textcolor{summarycolor}{" + summaryFirst + "}}}%",
		"}",
		"\\clearpage",
	}
}

var versoLines = []string{
	"% --- Verso empty page before chapter ---",
	"\\clearpage",
	"\\thispagestyle{empty}",
	"\\mbox{}",
	"\\clearpage",
}
