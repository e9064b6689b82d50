package importer

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	catalog "farmpulse/internal/catalog/domain"
)

type yamlCatalog struct {
	Crops []yamlCrop `yaml:"crops"`
}

type yamlCrop struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Seasons     []yamlSeason `yaml:"seasons"`
}

type yamlSeason struct {
	ID                 string      `yaml:"id"`
	Name               string      `yaml:"name"`
	PlantingStartMonth int         `yaml:"planting_start_month"`
	ExpectedRangeDays  string      `yaml:"expected_range_days"`
	Stages             []yamlStage `yaml:"stages"`
}

type yamlStage struct {
	ID           string            `yaml:"id"`
	Name         string            `yaml:"name"`
	Order        int               `yaml:"order"`
	DurationDays int               `yaml:"duration_days"`
	Description  string            `yaml:"description"`
	Requirements []yamlRequirement `yaml:"requirements"`
}

type yamlRequirement struct {
	ID          string  `yaml:"id"`
	ReadingType string  `yaml:"reading_type"`
	Min         float64 `yaml:"min"`
	Max         float64 `yaml:"max"`
	OptimalMin  float64 `yaml:"optimal_min"`
	OptimalMax  float64 `yaml:"optimal_max"`
}

// LoadCatalogYAML reads a crop catalog from a YAML file. Crops failing
// validation are skipped and reported; one bad crop does not abort the
// rest of the load.
func LoadCatalogYAML(path string) ([]catalog.Crop, []error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return ParseCatalogYAML(data)
}

// ParseCatalogYAML parses catalog YAML content.
func ParseCatalogYAML(data []byte) ([]catalog.Crop, []error, error) {
	var doc yamlCatalog
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, err
	}

	var (
		crops    []catalog.Crop
		problems []error
	)
	for _, yc := range doc.Crops {
		crop := catalog.Crop{
			ID:          yc.ID,
			Name:        yc.Name,
			Description: yc.Description,
		}
		for _, ys := range yc.Seasons {
			season := catalog.Season{
				ID:                 ys.ID,
				CropID:             yc.ID,
				Name:               ys.Name,
				PlantingStartMonth: time.Month(ys.PlantingStartMonth),
				ExpectedRangeDays:  ys.ExpectedRangeDays,
			}
			for _, yst := range ys.Stages {
				stage := catalog.GrowthStage{
					ID:           yst.ID,
					SeasonID:     ys.ID,
					Name:         yst.Name,
					Order:        yst.Order,
					DurationDays: yst.DurationDays,
					Description:  yst.Description,
				}
				for _, yr := range yst.Requirements {
					stage.Requirements = append(stage.Requirements, catalog.Requirement{
						ID:              yr.ID,
						StageID:         yst.ID,
						ReadingTypeCode: yr.ReadingType,
						MinValue:        yr.Min,
						MaxValue:        yr.Max,
						OptimalMin:      yr.OptimalMin,
						OptimalMax:      yr.OptimalMax,
					})
				}
				season.Stages = append(season.Stages, stage)
			}
			crop.Seasons = append(crop.Seasons, season)
		}
		if err := crop.Validate(); err != nil {
			problems = append(problems, fmt.Errorf("catalog yaml: %w", err))
			continue
		}
		crops = append(crops, crop)
	}
	return crops, problems, nil
}
