package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/locvowork/sql2xlsx/internal/exporter"
	"github.com/locvowork/sql2xlsx/internal/logger"
	"github.com/locvowork/sql2xlsx/internal/metrics"
	"github.com/locvowork/sql2xlsx/internal/queryfile"
)

var (
	ErrInvalidName   = errors.New("invalid query name")
	ErrQueryNotFound = errors.New("query not found")
)

var validName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// queryExtensions are tried in order when resolving a named query.
var queryExtensions = []string{".sql", ".sql.gz", ".sql.zst", ".sql.xz", ".sql.bz2"}

// NamedExport is a finished export of a named query held in a temporary file.
type NamedExport struct {
	*exporter.Result
	Filename string
}

// Cleanup removes the temporary workbook.
func (n *NamedExport) Cleanup() error {
	return os.Remove(n.OutputPath)
}

type ExportService interface {
	Export(ctx context.Context, query, output string) (*exporter.Result, error)
	ExportFile(ctx context.Context, queryPath, output string) (*exporter.Result, error)
	ExportNamed(ctx context.Context, name string) (*NamedExport, error)
}

type exportService struct {
	exporter *exporter.Exporter
	metrics  *metrics.Metrics
	queryDir string
	workDir  string
}

// NewExportService wires an exporter to metrics. Named queries are looked up
// in queryDir and rendered into workDir (the system temp dir when empty).
func NewExportService(exp *exporter.Exporter, m *metrics.Metrics, queryDir, workDir string) ExportService {
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &exportService{exporter: exp, metrics: m, queryDir: queryDir, workDir: workDir}
}

func (s *exportService) Export(ctx context.Context, query, output string) (*exporter.Result, error) {
	var record func(int64, string, error)
	if s.metrics != nil {
		record = s.metrics.Start()
	}

	res, err := s.exporter.Export(ctx, query, output)

	if record != nil {
		var rows int64
		stage := ""
		if res != nil {
			rows = res.Rows
		}
		if st, ok := exporter.FailedStage(err); ok {
			stage = st.String()
		}
		record(rows, stage, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to export query: %w", err)
	}
	return res, nil
}

func (s *exportService) ExportFile(ctx context.Context, queryPath, output string) (*exporter.Result, error) {
	query, err := queryfile.Read(queryPath)
	if err != nil {
		return nil, err
	}
	if output == "" {
		output = queryfile.DefaultOutputPath(queryPath)
	}
	logger.InfoLog(ctx, "exporting %s to %s", queryPath, output)
	return s.Export(ctx, query, output)
}

func (s *exportService) ExportNamed(ctx context.Context, name string) (*NamedExport, error) {
	if !validName.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(s.workDir, name+"-*.xlsx")
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	output := tmp.Name()
	_ = tmp.Close()

	res, err := s.ExportFile(ctx, path, output)
	if err != nil {
		_ = os.Remove(output)
		return nil, err
	}
	return &NamedExport{Result: res, Filename: name + ".xlsx"}, nil
}

func (s *exportService) resolve(name string) (string, error) {
	for _, ext := range queryExtensions {
		path := filepath.Join(s.queryDir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrQueryNotFound, name)
}
