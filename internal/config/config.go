package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultFile is read when no explicit config path is given and it exists.
const DefaultFile = "bookctl.yaml"

type Config struct {
	Log LogConfig `yaml:"log"`

	// Compiler invocation
	Compiler     string        `yaml:"compiler" env:"BOOKCTL_COMPILER" env-default:"lualatex"`
	CompilerArgs []string      `yaml:"compiler_args" env:"BOOKCTL_COMPILER_ARGS" env-default:"-interaction=nonstopmode" env-separator:" "`
	PollInterval time.Duration `yaml:"poll_interval" env:"BOOKCTL_POLL_INTERVAL" env-default:"100ms"`

	// Artifact cleanup before the first pass
	ArtifactExtensions []string `yaml:"artifact_extensions" env:"BOOKCTL_ARTIFACT_EXTENSIONS" env-default:"aux,toc,log,out,fdb_latexmk,fls,synctex.gz,bbl,blg,idx,ind,ilg,lof,lot,nav,snm,vrb"`

	// Post-compile tools, given as argv. An empty PageTableCommand runs this
	// binary's pagetable subcommand.
	PageTableCommand []string `yaml:"page_table_command" env:"BOOKCTL_PAGE_TABLE_COMMAND" env-separator:" "`
	ScaleCommand     []string `yaml:"scale_command" env:"BOOKCTL_SCALE_COMMAND" env-default:"python3 utils/scale_pdf.py" env-separator:" "`

	// Page counting
	PDFInfo           string `yaml:"pdfinfo" env:"BOOKCTL_PDFINFO" env-default:"pdfinfo"`
	FallbackPageCount int    `yaml:"fallback_page_count" env:"BOOKCTL_FALLBACK_PAGE_COUNT" env-default:"600"`

	// Flattening
	StrictFragments bool `yaml:"strict_fragments" env:"BOOKCTL_STRICT_FRAGMENTS" env-default:"false"`

	// Reports
	BookTitle       string `yaml:"book_title" env:"BOOKCTL_BOOK_TITLE" env-default:"UNPOPULAR SCIENCE: A Collection of Mathematical and Scientific Essays"`
	ContextsPerName int    `yaml:"contexts_per_name" env:"BOOKCTL_CONTEXTS_PER_NAME" env-default:"5"`
	IndexWorkers    int    `yaml:"index_workers" env:"BOOKCTL_INDEX_WORKERS" env-default:"8"`

	// Status server
	StatusAddr  string `yaml:"status_addr" env:"BOOKCTL_STATUS_ADDR"`
	StatusToken string `yaml:"status_token" env:"BOOKCTL_STATUS_TOKEN"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"BOOKCTL_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"BOOKCTL_LOG_FORMAT" env-default:"text"`
}

// Load reads the YAML file at path (if any) and overlays BOOKCTL_* environment
// variables. With an empty path it falls back to BOOKCTL_CONFIG, then DefaultFile.
func Load(path string) (Config, error) {
	var cfg Config

	if path == "" {
		path = os.Getenv("BOOKCTL_CONFIG")
	}
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}

	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Compiler == "" {
		errs = append(errs, fmt.Errorf("BOOKCTL_COMPILER is required"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll interval must be positive, got %s", c.PollInterval))
	}
	if c.FallbackPageCount <= 0 {
		errs = append(errs, fmt.Errorf("fallback page count must be positive, got %d", c.FallbackPageCount))
	}
	if c.ContextsPerName <= 0 {
		errs = append(errs, fmt.Errorf("contexts per name must be positive, got %d", c.ContextsPerName))
	}
	if c.IndexWorkers <= 0 {
		errs = append(errs, fmt.Errorf("index workers must be positive, got %d", c.IndexWorkers))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	return errors.Join(errs...)
}
