package parser

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/zfskit/zfskit/pkg/models"
)

// ParseDatasetName parses a hierarchical dataset name: one or more
// path segments joined by /, with an optional terminal @snapshot or
// #bookmark segment. A bare suffix with no preceding filesystem
// segment is rejected.
func ParseDatasetName(text string) (models.DatasetName, error) {
	var name models.DatasetName

	rest := text
	if at := strings.IndexAny(text, "@#"); at >= 0 {
		rest = text[:at]
		suffix := text[at+1:]
		if !isName(suffix) {
			return name, &MalformedError{Text: text, Expected: "snapshot or bookmark segment"}
		}
		if text[at] == '@' {
			name.Snapshot = suffix
		} else {
			name.Bookmark = suffix
		}
	}
	if rest == "" {
		return models.DatasetName{}, &MalformedError{Text: text, Expected: "at least one filesystem segment"}
	}
	for _, seg := range strings.Split(rest, "/") {
		if !isName(seg) {
			return models.DatasetName{}, &MalformedError{Text: text, Expected: "dataset path segment"}
		}
		name.Segments = append(name.Segments, seg)
	}
	return name, nil
}

// ParseDatasetList parses zfs list -H -o name output, one dataset per
// line. A trailing newline is optional and blank lines are skipped.
func ParseDatasetList(text string) ([]models.DatasetName, error) {
	var names []models.DatasetName
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		name, err := ParseDatasetName(line)
		if err != nil {
			return nil, fmt.Errorf("failed to parse dataset list: %w", err)
		}
		names = append(names, name)
	}
	return names, nil
}

// TypedDataset is one row of zfs list -H -t all -o type,name output.
type TypedDataset struct {
	Type models.DatasetType
	Name models.DatasetName
}

// ParseTypedDatasetList parses listing output where each line carries a
// dataset type followed by the dataset name. An unrecognized type token
// fails the parse with UnknownStateError.
func ParseTypedDatasetList(text string) ([]TypedDataset, error) {
	var datasets []TypedDataset
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, &MalformedError{Text: line, Expected: "dataset type and name"}
		}
		dsType, ok := models.ParseDatasetType(fields[0])
		if !ok {
			return nil, &UnknownStateError{Token: fields[0]}
		}
		name, err := ParseDatasetName(fields[1])
		if err != nil {
			return nil, fmt.Errorf("failed to parse typed dataset list: %w", err)
		}
		datasets = append(datasets, TypedDataset{Type: dsType, Name: name})
	}
	return datasets, nil
}

const (
	notFoundPrefix = "cannot open '"
	notFoundSuffix = "': dataset does not exist"
)

// TryParseNotFound recognizes exactly one error shape from zfs stderr:
//
//	cannot open '<name>': dataset does not exist
//
// and returns the dataset name it names. Any other text, including a
// matching line with an invalid name inside the quotes, returns nil;
// callers pass such text through as opaque diagnostics.
func TryParseNotFound(text string) *models.DatasetName {
	line := strings.TrimSpace(text)
	// zfs may print further advice lines after the error, keep the first.
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = strings.TrimSpace(line[:nl])
	}
	if !strings.HasPrefix(line, notFoundPrefix) || !strings.HasSuffix(line, notFoundSuffix) {
		return nil
	}
	raw := line[len(notFoundPrefix) : len(line)-len(notFoundSuffix)]
	name, err := ParseDatasetName(raw)
	if err != nil {
		return nil
	}
	return &name
}
