package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gatesweb/emlak-directory/internal/district"
	"github.com/gatesweb/emlak-directory/internal/dto"
	"github.com/gatesweb/emlak-directory/internal/entity"
	"github.com/gatesweb/emlak-directory/internal/metrics"
	"github.com/gatesweb/emlak-directory/internal/repository"
	"github.com/gatesweb/emlak-directory/internal/service/scoring"
)

// utf8BOM prefixes exported files so spreadsheet tools decode Turkish
// characters correctly, matching the documented dataset encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// requiredCSVHeaders is the documented column contract; email_verification
// is optional and only present in verified datasets.
var requiredCSVHeaders = []string{"name", "phone", "website", "email", "founder", "district", "source", "email_source"}

const verificationHeader = "email_verification"

// CompaniesService exposes read/write operations over the stored dataset.
type CompaniesService struct {
	repo repository.CompaniesRepository
}

// NewCompaniesService creates a new instance of CompaniesService.
func NewCompaniesService(repo repository.CompaniesRepository) *CompaniesService {
	return &CompaniesService{repo: repo}
}

// CSVValidationError indicates that the provided CSV payload is invalid.
type CSVValidationError struct {
	Message string
}

// Error implements the error interface.
func (e CSVValidationError) Error() string {
	return e.Message
}

// UploadSummary reports how many rows were inserted or updated during import.
type UploadSummary struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Total    int `json:"total"`
}

// ValidationReport lists every dataset-invariant violation found in a CSV
// file. A file is valid when Errors is empty.
type ValidationReport struct {
	Rows     int      `json:"rows"`
	Valid    bool     `json:"valid"`
	Verified int      `json:"verified"`
	Bad      int      `json:"bad"`
	Errors   []string `json:"errors,omitempty"`
}

// ListCompanies returns companies respecting pagination defaults.
func (s *CompaniesService) ListCompanies(ctx context.Context, filter dto.ListFilter) ([]entity.Company, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}
	return s.repo.List(ctx, filter)
}

// ImportCSV ingests dataset rows from a CSV reader. Rows missing name or
// phone are skipped; a district outside the enumeration or a malformed
// verification label rejects the whole file.
func (s *CompaniesService) ImportCSV(ctx context.Context, r io.Reader) (UploadSummary, error) {
	reader := csv.NewReader(stripBOM(r))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return UploadSummary{}, CSVValidationError{Message: "csv file is empty"}
		}
		return UploadSummary{}, fmt.Errorf("read csv header: %w", err)
	}

	indexMap, valErr := buildHeaderIndex(header)
	if valErr != nil {
		return UploadSummary{}, valErr
	}
	verificationIdx, hasVerification := indexMap[verificationHeader]

	var (
		records []entity.Company
		rowNum  = 1
	)

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return UploadSummary{}, fmt.Errorf("read csv row: %w", err)
		}

		rowNum++

		name := strings.TrimSpace(row[indexMap["name"]])
		phone := strings.TrimSpace(row[indexMap["phone"]])
		if name == "" || phone == "" {
			continue
		}

		districtName := strings.TrimSpace(row[indexMap["district"]])
		if !district.Valid(districtName) {
			return UploadSummary{}, CSVValidationError{Message: fmt.Sprintf("unknown district %q on row %d", districtName, rowNum)}
		}

		record := entity.Company{
			Name:        name,
			Phone:       phone,
			Website:     optionalField(row[indexMap["website"]]),
			Email:       strings.TrimSpace(row[indexMap["email"]]),
			Founder:     optionalField(row[indexMap["founder"]]),
			District:    districtName,
			Source:      strings.TrimSpace(row[indexMap["source"]]),
			EmailSource: strings.TrimSpace(row[indexMap["email_source"]]),
		}

		if hasVerification {
			verification := strings.TrimSpace(row[verificationIdx])
			switch verification {
			case "":
			case entity.VerificationDeliverable, entity.VerificationBad:
				record.EmailVerification = &verification
			default:
				return UploadSummary{}, CSVValidationError{Message: fmt.Sprintf("invalid email_verification value %q on row %d", verification, rowNum)}
			}
		}

		records = append(records, record)
	}

	result, err := s.repo.BulkUpsert(ctx, records)
	if err != nil {
		return UploadSummary{}, err
	}
	metrics.CSVRowsImported.Add(float64(result.Total))

	return UploadSummary{
		Inserted: result.Inserted,
		Updated:  result.Updated,
		Total:    result.Total,
	}, nil
}

// ExportCSV writes the whole dataset to w in the documented column order,
// prefixed with a UTF-8 BOM. The email_verification column appears only
// when at least one record carries a label. Returns the row count.
func (s *CompaniesService) ExportCSV(ctx context.Context, w io.Writer) (int, error) {
	companies, err := s.repo.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	if _, err := w.Write(utf8BOM); err != nil {
		return 0, fmt.Errorf("write bom: %w", err)
	}

	withVerification := false
	for i := range companies {
		if companies[i].EmailVerification != nil {
			withVerification = true
			break
		}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader(withVerification)); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}

	for i := range companies {
		if err := writer.Write(exportRow(&companies[i], withVerification)); err != nil {
			return 0, fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	return len(companies), nil
}

// ValidateCSV checks a CSV file against the dataset invariants: unique
// (name, phone) pairs, known districts, well-formed verification labels,
// non-empty required fields and, when expectedRows > 0, the documented row
// count. It never mutates anything.
func (s *CompaniesService) ValidateCSV(r io.Reader, expectedRows int) (ValidationReport, error) {
	reader := csv.NewReader(stripBOM(r))
	reader.TrimLeadingSpace = true

	report := ValidationReport{}

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return report, CSVValidationError{Message: "csv file is empty"}
		}
		return report, fmt.Errorf("read csv header: %w", err)
	}

	indexMap, valErr := buildHeaderIndex(header)
	if valErr != nil {
		return report, valErr
	}
	verificationIdx, hasVerification := indexMap[verificationHeader]

	seen := make(map[string]int)
	rowNum := 1

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return report, fmt.Errorf("read csv row: %w", err)
		}

		rowNum++
		report.Rows++

		name := strings.TrimSpace(row[indexMap["name"]])
		phone := strings.TrimSpace(row[indexMap["phone"]])

		for _, required := range []struct {
			column string
			value  string
		}{
			{"name", name},
			{"phone", phone},
			{"email", strings.TrimSpace(row[indexMap["email"]])},
			{"district", strings.TrimSpace(row[indexMap["district"]])},
			{"source", strings.TrimSpace(row[indexMap["source"]])},
			{"email_source", strings.TrimSpace(row[indexMap["email_source"]])},
		} {
			if required.value == "" {
				report.Errors = append(report.Errors, fmt.Sprintf("row %d: empty %s", rowNum, required.column))
			}
		}

		if name != "" && phone != "" {
			key := dedupKey(name, phone)
			if firstRow, dup := seen[key]; dup {
				report.Errors = append(report.Errors, fmt.Sprintf("row %d: duplicate (name, phone) pair, first seen on row %d", rowNum, firstRow))
			} else {
				seen[key] = rowNum
			}
		}

		if districtName := strings.TrimSpace(row[indexMap["district"]]); districtName != "" && !district.Valid(districtName) {
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: unknown district %q", rowNum, districtName))
		}

		if hasVerification {
			switch verification := strings.TrimSpace(row[verificationIdx]); verification {
			case "":
			case entity.VerificationDeliverable:
				report.Verified++
			case entity.VerificationBad:
				report.Bad++
			default:
				report.Errors = append(report.Errors, fmt.Sprintf("row %d: invalid email_verification value %q", rowNum, verification))
			}
		}
	}

	if expectedRows > 0 && report.Rows != expectedRows {
		report.Errors = append(report.Errors, fmt.Sprintf("row count %d does not match documented total %d", report.Rows, expectedRows))
	}

	report.Valid = len(report.Errors) == 0
	return report, nil
}

// Stats combines the stored aggregates with an average contact-completeness
// score over the dataset.
func (s *CompaniesService) Stats(ctx context.Context) (dto.DatasetStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return stats, err
	}

	if stats.Total == 0 {
		return stats, nil
	}

	companies, err := s.repo.ListAll(ctx)
	if err != nil {
		return stats, err
	}

	totalScore := 0
	for i := range companies {
		totalScore += scoring.ComputeScore(recordFeatures(&companies[i])).Total
	}
	stats.AvgContactScore = float64(totalScore) / float64(len(companies))

	return stats, nil
}

func recordFeatures(c *entity.Company) scoring.RecordFeatures {
	features := scoring.RecordFeatures{
		Email:    c.Email,
		Phone:    c.Phone,
		Founder:  c.Founder != nil && *c.Founder != "",
		Verified: c.Verified(),
	}
	if c.Website != nil {
		features.Website = *c.Website
	}
	return features
}

func exportHeader(withVerification bool) []string {
	if withVerification {
		return []string{"name", "phone", "website", "email", "email_verification", "founder", "district", "source", "email_source"}
	}
	return []string{"name", "phone", "website", "email", "founder", "district", "source", "email_source"}
}

func exportRow(c *entity.Company, withVerification bool) []string {
	website := ""
	if c.Website != nil {
		website = *c.Website
	}
	founder := ""
	if c.Founder != nil {
		founder = *c.Founder
	}

	if withVerification {
		verification := ""
		if c.EmailVerification != nil {
			verification = *c.EmailVerification
		}
		return []string{c.Name, c.Phone, website, c.Email, verification, founder, c.District, c.Source, c.EmailSource}
	}
	return []string{c.Name, c.Phone, website, c.Email, founder, c.District, c.Source, c.EmailSource}
}

func buildHeaderIndex(header []string) (map[string]int, error) {
	index := make(map[string]int)
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}

	missing := make([]string, 0)
	for _, required := range requiredCSVHeaders {
		if _, ok := index[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, CSVValidationError{Message: fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", "))}
	}
	return index, nil
}

func optionalField(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

// stripBOM removes a UTF-8 byte order mark so files written by spreadsheet
// tools (or our own exporter) parse cleanly.
func stripBOM(r io.Reader) io.Reader {
	buffered := make([]byte, 3)
	n, err := io.ReadFull(r, buffered)
	if err != nil {
		// Short files: hand back whatever was read.
		return strings.NewReader(string(buffered[:n]))
	}
	if buffered[0] == utf8BOM[0] && buffered[1] == utf8BOM[1] && buffered[2] == utf8BOM[2] {
		return r
	}
	return io.MultiReader(strings.NewReader(string(buffered)), r)
}
