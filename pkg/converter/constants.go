package converter

// Constants defining default values for configuration options. These feed the
// Viper defaults during configuration loading.
const (
	// DefaultConcurrency is the default number of workers.
	DefaultConcurrency = 6
	// MaxConcurrency bounds the worker count to a sane maximum.
	MaxConcurrency = 32
	// DefaultOutputFormatName is the default conversion target format.
	DefaultOutputFormatName = "epub"
	// DefaultProfile is the default --output-profile passed to the tool.
	DefaultProfile = "kindle"
	// DefaultTarget is the default device preset.
	DefaultTarget = TargetApp
	// DefaultOverwrite is the default for replacing existing outputs.
	DefaultOverwrite = false
	// DefaultFlatten is the default for the flattened output layout.
	DefaultFlatten = false
	// DefaultTuiEnabled is the default state for the terminal UI.
	DefaultTuiEnabled = true
	// DefaultVerbose is the default state for debug logging.
	DefaultVerbose = false
	// DefaultReportFormat is the default format for the final summary.
	DefaultReportFormat = OutputFormatText
)

// ConverterExecutableName is the name of Calibre's conversion tool as looked
// up on the process search path.
const ConverterExecutableName = "ebook-convert"

// ConverterFallbackPath is the conventional Calibre install location tried as
// a last resort when the tool is neither configured nor on the search path.
const ConverterFallbackPath = `C:\Program Files\Calibre2\ebook-convert.exe`

// DefaultInputExtensions are the input formats Calibre typically handles well.
// They seed the extension-selection help text; the actual default selection
// is just ".pdf".
var DefaultInputExtensions = []string{
	".pdf", ".epub", ".mobi", ".azw", ".azw3", ".fb2", ".rtf", ".txt",
	".docx", ".doc", ".html", ".htm", ".cbz", ".cbr",
}

// KnownProfiles are the output profiles offered by the CLI. Any other string
// is still passed through to the tool untouched.
var KnownProfiles = []string{"kindle", "kindle_pw3", "tablet", "default"}

// KnownOutputFormats are the conversion targets offered by the CLI.
var KnownOutputFormats = []string{"azw3", "epub", "mobi"}

// Recommended output formats per device target.
const (
	TargetAppFormat    = "epub"
	TargetDeviceFormat = "azw3"
)
