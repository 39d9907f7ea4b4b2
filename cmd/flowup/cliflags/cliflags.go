// Package cliflags parses the flowup command line.
package cliflags

import (
	"fmt"
	"os"
	"strconv"
)

// Modes returned by Parse.
const (
	ModeAPI = iota
	ModeDirect
	ModeInvalid
)

var osExit = os.Exit

// UploadParameters holds the arguments for an upload run.
type UploadParameters struct {
	Paths       []string
	Concurrency int
	JSONOutput  bool
	Quiet       bool
}

// Parse reads the invocation mode from the first argument.
func Parse() int {
	if len(os.Args) < 2 {
		printUsage()
		return ModeInvalid
	}
	switch os.Args[1] {
	case "api":
		return ModeAPI
	case "direct":
		return ModeDirect
	default:
		printUsage()
		return ModeInvalid
	}
}

// GetUploadParameters walks the remaining arguments. Flags may appear in
// any position; everything else is treated as a file or directory path.
func GetUploadParameters() UploadParameters {
	result := UploadParameters{}
	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--json":
			result.JSONOutput = true
		case "--quiet":
			result.Quiet = true
		case "-c", "--concurrency":
			result.Concurrency = requireInt(args, i)
			i++
		default:
			result.Paths = append(result.Paths, args[i])
		}
	}
	if len(result.Paths) == 0 {
		fmt.Println("ERROR: no files or directories given")
		printUsage()
		osExit(2)
	}
	return result
}

func requireInt(args []string, i int) int {
	if i+1 >= len(args) {
		fmt.Println("ERROR: missing value for", args[i])
		osExit(2)
		return 0
	}
	value, err := strconv.Atoi(args[i+1])
	if err != nil || value < 1 {
		fmt.Println("ERROR: invalid value for", args[i])
		osExit(2)
		return 0
	}
	return value
}

func printUsage() {
	fmt.Println("flowup - uploads captured deck pages as chunked multipart uploads")
	fmt.Println()
	fmt.Println("Usage: flowup MODE [flags] PATH...")
	fmt.Println()
	fmt.Println("Modes:")
	fmt.Println("  api      upload through a coordinator service (FLOWUP_BASE_URL, FLOWUP_TOKEN or FLOWUP_API_KEY)")
	fmt.Println("  direct   upload straight to S3 (FLOWUP_S3_* variables or yaml file)")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -c, --concurrency N   parallel uploads (default from FLOWUP_CONCURRENCY)")
	fmt.Println("  --json                print outcomes as json")
	fmt.Println("  --quiet               no progress bar")
}
