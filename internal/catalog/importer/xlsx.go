package importer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	catalog "farmpulse/internal/catalog/domain"
)

// DefaultStageSheet is the sheet name ImportStagesXLSX reads by default.
const DefaultStageSheet = "Stages"

// ImportStagesXLSX loads a crop catalog from a spreadsheet. Stage sheets
// use one row per (stage, reading type) requirement; rows without a
// reading type define the stage only. Expected columns:
//
//	crop_id, crop_name, season_id, season_name, planting_month,
//	stage_id, stage_name, order, duration_days,
//	reading_type, min, max, optimal_min, optimal_max
//
// Header names are normalized (case, spaces, dashes, underscores).
// Bad rows and invalid crops are reported and skipped; they never abort
// the rest of the import.
func ImportStagesXLSX(path, sheet string) ([]catalog.Crop, []error, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	if sheet == "" {
		sheet = DefaultStageSheet
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("catalog xlsx: sheet %s has no data rows", sheet)
	}

	cols, err := headerIndex(rows[0])
	if err != nil {
		return nil, nil, err
	}

	builder := newCropBuilder()
	var problems []error
	for i, row := range rows[1:] {
		if err := builder.addRow(cols, row); err != nil {
			problems = append(problems, fmt.Errorf("catalog xlsx row %d: %w", i+2, err))
		}
	}

	crops, validationProblems := builder.build()
	problems = append(problems, validationProblems...)
	return crops, problems, nil
}

type headerMap map[string]int

func headerIndex(header []string) (headerMap, error) {
	cols := make(headerMap, len(header))
	for i, name := range header {
		cols[normalizeHeader(name)] = i
	}
	for _, required := range []string{"cropid", "stageid", "stagename", "order", "durationdays"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("catalog xlsx: missing column %q", required)
		}
	}
	return cols, nil
}

func normalizeHeader(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "_", "")
	return s
}

func (m headerMap) str(row []string, key string) string {
	idx, ok := m[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (m headerMap) intval(row []string, key string) (int, error) {
	raw := m.str(row, key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func (m headerMap) floatval(row []string, key string) (float64, error) {
	raw := m.str(row, key)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}

type seasonBuilder struct {
	season catalog.Season
	stages []*catalog.GrowthStage
	byID   map[string]*catalog.GrowthStage
}

type cropBuilder struct {
	order   []string
	crops   map[string]*catalog.Crop
	seasons map[string]map[string]*seasonBuilder
}

func newCropBuilder() *cropBuilder {
	return &cropBuilder{
		crops:   make(map[string]*catalog.Crop),
		seasons: make(map[string]map[string]*seasonBuilder),
	}
}

func (b *cropBuilder) addRow(cols headerMap, row []string) error {
	cropID := cols.str(row, "cropid")
	stageID := cols.str(row, "stageid")
	if cropID == "" || stageID == "" {
		return fmt.Errorf("missing crop_id or stage_id")
	}

	crop, ok := b.crops[cropID]
	if !ok {
		crop = &catalog.Crop{ID: cropID, Name: cols.str(row, "cropname")}
		b.crops[cropID] = crop
		b.seasons[cropID] = make(map[string]*seasonBuilder)
		b.order = append(b.order, cropID)
	}

	seasonID := cols.str(row, "seasonid")
	if seasonID == "" {
		seasonID = cropID + "-default"
	}
	sb, ok := b.seasons[cropID][seasonID]
	if !ok {
		month, err := cols.intval(row, "plantingmonth")
		if err != nil {
			return fmt.Errorf("bad planting_month: %w", err)
		}
		sb = &seasonBuilder{
			season: catalog.Season{
				ID:                 seasonID,
				CropID:             cropID,
				Name:               cols.str(row, "seasonname"),
				PlantingStartMonth: time.Month(month),
			},
			byID: make(map[string]*catalog.GrowthStage),
		}
		b.seasons[cropID][seasonID] = sb
	}

	stage, ok := sb.byID[stageID]
	if !ok {
		order, err := cols.intval(row, "order")
		if err != nil {
			return fmt.Errorf("bad order: %w", err)
		}
		duration, err := cols.intval(row, "durationdays")
		if err != nil {
			return fmt.Errorf("bad duration_days: %w", err)
		}
		stage = &catalog.GrowthStage{
			ID:           stageID,
			SeasonID:     seasonID,
			Name:         cols.str(row, "stagename"),
			Order:        order,
			DurationDays: duration,
		}
		sb.byID[stageID] = stage
		sb.stages = append(sb.stages, stage)
	}

	readingType := cols.str(row, "readingtype")
	if readingType == "" {
		return nil
	}
	min, err := cols.floatval(row, "min")
	if err != nil {
		return fmt.Errorf("bad min: %w", err)
	}
	max, err := cols.floatval(row, "max")
	if err != nil {
		return fmt.Errorf("bad max: %w", err)
	}
	optMin, err := cols.floatval(row, "optimalmin")
	if err != nil {
		return fmt.Errorf("bad optimal_min: %w", err)
	}
	optMax, err := cols.floatval(row, "optimalmax")
	if err != nil {
		return fmt.Errorf("bad optimal_max: %w", err)
	}
	req := catalog.Requirement{
		ID:              stageID + ":" + readingType,
		StageID:         stageID,
		ReadingTypeCode: readingType,
		MinValue:        min,
		MaxValue:        max,
		OptimalMin:      optMin,
		OptimalMax:      optMax,
	}
	if err := req.Validate(); err != nil {
		return err
	}
	stage.Requirements = append(stage.Requirements, req)
	return nil
}

func (b *cropBuilder) build() ([]catalog.Crop, []error) {
	var (
		crops    []catalog.Crop
		problems []error
	)
	for _, cropID := range b.order {
		crop := *b.crops[cropID]
		for _, sb := range b.seasons[cropID] {
			season := sb.season
			for _, stage := range sb.stages {
				season.Stages = append(season.Stages, *stage)
			}
			sort.Slice(season.Stages, func(i, j int) bool {
				return season.Stages[i].Order < season.Stages[j].Order
			})
			crop.Seasons = append(crop.Seasons, season)
		}
		if err := crop.Validate(); err != nil {
			problems = append(problems, fmt.Errorf("catalog xlsx: %w", err))
			continue
		}
		crops = append(crops, crop)
	}
	return crops, problems
}
