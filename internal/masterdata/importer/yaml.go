package importer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	masterdata "farmpulse/internal/masterdata/domain"
)

type yamlMasterdata struct {
	Farms        []yamlFarm        `yaml:"farms"`
	Zones        []yamlZone        `yaml:"zones"`
	Equipment    []yamlEquipment   `yaml:"equipment"`
	ReadingTypes []yamlReadingType `yaml:"reading_types"`
}

type yamlFarm struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Code     string `yaml:"code"`
	Location string `yaml:"location"`
}

type yamlZone struct {
	ID       string  `yaml:"id"`
	FarmID   string  `yaml:"farm_id"`
	Name     string  `yaml:"name"`
	AreaSqM  float64 `yaml:"area_sqm"`
	SoilType string  `yaml:"soil_type"`
}

type yamlEquipment struct {
	ID           string `yaml:"id"`
	ZoneID       string `yaml:"zone_id"`
	ReadingType  string `yaml:"reading_type"`
	SerialNumber string `yaml:"serial_number"`
	Model        string `yaml:"model"`
	Name         string `yaml:"name"`
	Status       string `yaml:"status"`
}

type yamlReadingType struct {
	ID          string `yaml:"id"`
	Code        string `yaml:"code"`
	DisplayName string `yaml:"display_name"`
	Unit        string `yaml:"unit"`
	Category    string `yaml:"category"`
}

// Seed holds parsed masterdata ready to load into a store.
type Seed struct {
	Farms        []masterdata.Farm
	Zones        []masterdata.Zone
	Equipment    []masterdata.Equipment
	ReadingTypes []masterdata.ReadingType
}

// LoadMasterdataYAML reads farms, zones, equipment and reading types
// from a YAML file. Records failing validation are skipped and
// reported; one bad record does not abort the rest of the load.
func LoadMasterdataYAML(path string) (*Seed, []error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return ParseMasterdataYAML(data)
}

// ParseMasterdataYAML parses masterdata YAML content.
func ParseMasterdataYAML(data []byte) (*Seed, []error, error) {
	var doc yamlMasterdata
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, err
	}

	seed := &Seed{}
	var problems []error

	for _, yf := range doc.Farms {
		if yf.ID == "" {
			problems = append(problems, fmt.Errorf("masterdata yaml: farm with empty id"))
			continue
		}
		seed.Farms = append(seed.Farms, masterdata.Farm{
			ID:       yf.ID,
			Name:     yf.Name,
			Code:     yf.Code,
			Location: yf.Location,
		})
	}
	for _, yz := range doc.Zones {
		zone := masterdata.Zone{
			ID:       yz.ID,
			FarmID:   yz.FarmID,
			Name:     yz.Name,
			AreaSqM:  yz.AreaSqM,
			SoilType: yz.SoilType,
		}
		if err := zone.Validate(); err != nil {
			problems = append(problems, fmt.Errorf("masterdata yaml: %w", err))
			continue
		}
		seed.Zones = append(seed.Zones, zone)
	}
	for _, ye := range doc.Equipment {
		status := ye.Status
		if status == "" {
			status = masterdata.EquipmentActive
		}
		unit := masterdata.Equipment{
			ID:              ye.ID,
			ZoneID:          ye.ZoneID,
			ReadingTypeCode: ye.ReadingType,
			SerialNumber:    ye.SerialNumber,
			Model:           ye.Model,
			Name:            ye.Name,
			Status:          status,
		}
		if err := unit.Validate(); err != nil {
			problems = append(problems, fmt.Errorf("masterdata yaml: %w", err))
			continue
		}
		seed.Equipment = append(seed.Equipment, unit)
	}
	for _, yt := range doc.ReadingTypes {
		rt := masterdata.ReadingType{
			ID:          yt.ID,
			Code:        yt.Code,
			DisplayName: yt.DisplayName,
			Unit:        yt.Unit,
			Category:    yt.Category,
		}
		if err := rt.Validate(); err != nil {
			problems = append(problems, fmt.Errorf("masterdata yaml: %w", err))
			continue
		}
		seed.ReadingTypes = append(seed.ReadingTypes, rt)
	}
	return seed, problems, nil
}
