package errors

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParsedError is a failure with the source position reported by the tool
// that produced it, when there is one.
type ParsedError struct {
	Task    string `json:"task,omitempty"`
	Stage   string `json:"stage,omitempty"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Message string `json:"message"`
}

type errorPattern struct {
	regex       *regexp.Regexp
	parseFields func(matches []string) (file string, line int, column int)
}

var patterns = []errorPattern{
	// esbuild: "    main.js:3:12:" under the "✘ [ERROR]" headline
	{
		regex: regexp.MustCompile(`^\s*(\S+?):(\d+):(\d+):\s*$`),
		parseFields: func(m []string) (string, int, int) {
			return m[1], atoi(m[2]), atoi(m[3])
		},
	},
	// text/template: "template: index.html:3:5: executing ..." or
	// "template: index.html:3: function ..."
	{
		regex: regexp.MustCompile(`template: ([^:]+):(\d+):(?:(\d+):)? `),
		parseFields: func(m []string) (string, int, int) {
			return m[1], atoi(m[2]), atoi(m[3])
		},
	},
	// dart sass stack frame: "  - 3:5  root stylesheet" or "  main.scss 3:5  root stylesheet"
	{
		regex: regexp.MustCompile(`^\s*(\S+) (\d+):(\d+)\s+\S`),
		parseFields: func(m []string) (string, int, int) {
			return m[1], atoi(m[2]), atoi(m[3])
		},
	},
	// anything shaped like "file:line:col: message"
	{
		regex: regexp.MustCompile(`^(.+?):(\d+):(\d+): `),
		parseFields: func(m []string) (string, int, int) {
			return m[1], atoi(m[2]), atoi(m[3])
		},
	},
}

// ParseError extracts the task, stage, file and position of err. The file
// named by a TransformError wins over what the tool reported, since tools
// see their input on stdin.
func ParseError(err error) *ParsedError {
	if err == nil {
		return nil
	}
	pe := &ParsedError{Message: err.Error()}

	var te *TaskError
	if errors.As(err, &te) {
		pe.Task = te.Task
	}
	cause := err
	var tfe *TransformError
	if errors.As(err, &tfe) {
		pe.Stage = tfe.Stage
		pe.File = tfe.File
		cause = tfe.Err
	}
	if cause != nil {
		pe.Message = strings.TrimSpace(cause.Error())
	}

	for _, line := range strings.Split(pe.Message, "\n") {
		file, ln, col, ok := match(line)
		if !ok {
			continue
		}
		if pe.File == "" && file != "-" && file != "<stdin>" {
			pe.File = file
		}
		pe.Line, pe.Column = ln, col
		break
	}
	return pe
}

func match(line string) (string, int, int, bool) {
	for _, p := range patterns {
		if m := p.regex.FindStringSubmatch(line); m != nil {
			file, ln, col := p.parseFields(m)
			return file, ln, col, true
		}
	}
	return "", 0, 0, false
}

// Location renders the position as file:line:column, leaving out what is
// unknown.
func (pe *ParsedError) Location() string {
	loc := pe.File
	if pe.Line > 0 {
		loc += ":" + strconv.Itoa(pe.Line)
		if pe.Column > 0 {
			loc += ":" + strconv.Itoa(pe.Column)
		}
	}
	return loc
}

// FormatError renders the error for the browser overlay: a headline naming
// where it happened followed by the tool's message.
func (pe *ParsedError) FormatError() string {
	var head []string
	if pe.Task != "" {
		head = append(head, fmt.Sprintf("'%s' failed", pe.Task))
	} else if pe.Stage != "" {
		head = append(head, pe.Stage)
	}
	if loc := pe.Location(); loc != "" {
		head = append(head, loc)
	}
	if len(head) == 0 {
		return pe.Message
	}
	return strings.Join(head, " in ") + "\n\n" + pe.Message
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
