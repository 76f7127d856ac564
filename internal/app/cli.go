package app

import "github.com/spf13/pflag"

// RegisterScanFlags registers the flags of the scan command on the given FlagSet
func RegisterScanFlags(flags *pflag.FlagSet) {
	flags.StringP("scan-folder", "s", "", "Folder to scan for documents")
	flags.StringP("output-folder", "o", "", "Folder for result files (default ./results)")
	flags.StringP("term-list", "t", "", "Term list file (.json, .csv, .yaml)")
	flags.StringSliceP("extensions", "e", nil, "File extensions to scan (default .pdf)")
	flags.BoolP("recursive", "r", false, "Scan subfolders")
	flags.Int("before", 50, "Characters of context before each match")
	flags.Int("after", 50, "Characters of context after each match")
	flags.BoolP("summary", "S", false, "Write a job summary file")
	flags.Bool("csv", false, "Also write matches as CSV")
	flags.String("sqlite", "", "Append matches and summary to this SQLite database")
	flags.String("log-dir", "", "Folder for the exception log (default ./logs)")
	flags.StringSlice("exclude", nil, "Glob patterns of paths to skip (default VCS and dependency folders)")
	flags.Int64("max-file-size", 0, "Skip files larger than this many bytes (0 = no limit)")
	flags.Int("workers", 0, "Number of files processed in parallel (default number of CPUs)")
	flags.Bool("case-sensitive", false, "Match terms case-sensitively")
	flags.Bool("dedupe", false, "Drop a match whose exact span was already reported by an earlier term")
	flags.Bool("normalize", false, "Apply Unicode NFC normalization to extracted text")
	RegisterIndexFlags(flags)
	RegisterLogFlags(flags)
}

// RegisterIndexFlags registers the match index flags
func RegisterIndexFlags(flags *pflag.FlagSet) {
	flags.String("index-dir", "", "Folder of the searchable match index")
}

// RegisterLogFlags registers the logging flags
func RegisterLogFlags(flags *pflag.FlagSet) {
	flags.BoolP("verbose", "v", false, "Enable debug logging")
}

// RegisterSearchFlags registers the flags of the search command
func RegisterSearchFlags(flags *pflag.FlagSet) {
	RegisterIndexFlags(flags)
	flags.String("term", "", "Only matches of this term")
	flags.String("file", "", "Only matches in this file (name or full path)")
	flags.String("job", "", "Only matches of this job ID")
	flags.Int("max-results", 0, "Maximum number of results (default 20)")
	flags.Bool("json", false, "Print results as JSON")
	flags.Bool("jobs", false, "List indexed jobs instead of searching")
	RegisterLogFlags(flags)
}

// RegisterServeFlags registers the flags of the serve command
func RegisterServeFlags(flags *pflag.FlagSet) {
	flags.String("transport", "", "Transport type: stdio or sse")
	flags.StringP("host", "H", "", "Host for SSE transport")
	flags.IntP("port", "p", 0, "Port for SSE transport")
	flags.StringP("auth-type", "a", "", "Authentication type: none, basic, or apikey")
	flags.StringP("auth-basic-username", "u", "", "Basic auth username")
	flags.StringP("auth-basic-password", "P", "", "Basic auth password")
	flags.StringSliceP("auth-api-keys", "k", nil, "API keys (comma-separated)")
	flags.Int("max-results", 0, "Maximum number of search results (default 20)")
	flags.StringSliceP("extensions", "e", nil, "Default file extensions to scan (default .pdf)")
	flags.Int("workers", 0, "Number of files processed in parallel (default number of CPUs)")
	RegisterIndexFlags(flags)
	RegisterLogFlags(flags)
}

// RegisterTermsFlags registers the flags of the terms validate command
func RegisterTermsFlags(flags *pflag.FlagSet) {
	flags.StringP("term-list", "t", "", "Term list file (.json, .csv, .yaml)")
	flags.Bool("case-sensitive", false, "Compile terms case-sensitively")
}
