package model

import (
	"encoding/json"
	"fmt"
	"time"

	"thermlink/internal/importer"
	"thermlink/internal/therm"

	"gorm.io/gorm"
)

// ImportPG model for PostgreSQL storage
type ImportPG struct {
	ID           string `gorm:"primaryKey"`
	SourceName   string `gorm:"size:255;not null"`
	ContentHash  string `gorm:"size:16;index"`
	UnitSystem   string `gorm:"size:32;not null"`
	FaceCount    int    `gorm:"not null"`
	PolygonCount int    `gorm:"not null"`
	Result       string `gorm:"type:jsonb;not null"`

	UpdatedAt time.Time      `gorm:"column:updated_at"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

// TableName overrides the table name
func (ImportPG) TableName() string {
	return "therm_imports"
}

// Import in-memory model of one finished THERM import
type Import struct {
	ID          string           `json:"id"`
	SourceName  string           `json:"source_name"`
	ContentHash string           `json:"content_hash"`
	UnitSystem  string           `json:"unit_system"`
	Result      *importer.Result `json:"result"`

	UpdatedAt time.Time `json:"updated_at"`
	CreatedAt time.Time `json:"created_at"`
}

// ImportSummary is the lightweight view returned by listings
type ImportSummary struct {
	ID               string                 `json:"id"`
	SourceName       string                 `json:"source_name"`
	UnitSystem       string                 `json:"unit_system"`
	FaceCount        int                    `json:"face_count"`
	PolygonCount     int                    `json:"polygon_count"`
	ConversionFactor float64                `json:"conversion_factor"`
	Frame            *therm.FrameDescriptor `json:"frame,omitempty"`
	Advisories       []therm.Advisory       `json:"advisories"`
	CreatedAt        time.Time              `json:"created_at"`
}

func (i *Import) Summary() ImportSummary {
	s := ImportSummary{
		ID:         i.ID,
		SourceName: i.SourceName,
		UnitSystem: i.UnitSystem,
		Advisories: []therm.Advisory{},
		CreatedAt:  i.CreatedAt,
	}
	if i.Result != nil {
		s.FaceCount = len(i.Result.Faces)
		s.PolygonCount = len(i.Result.Polygons)
		s.ConversionFactor = i.Result.ConversionFactor
		s.Frame = i.Result.Frame
		if i.Result.Advisories != nil {
			s.Advisories = i.Result.Advisories
		}
	}
	return s
}

// ToPG converts the import for PostgreSQL storage
func (i *Import) ToPG() (*ImportPG, error) {
	result, err := json.Marshal(i.Result)
	if err != nil {
		return nil, fmt.Errorf("encode import %s: %w", i.ID, err)
	}

	s := i.Summary()
	return &ImportPG{
		ID:           i.ID,
		SourceName:   i.SourceName,
		ContentHash:  i.ContentHash,
		UnitSystem:   i.UnitSystem,
		FaceCount:    s.FaceCount,
		PolygonCount: s.PolygonCount,
		Result:       string(result),
		UpdatedAt:    i.UpdatedAt,
		CreatedAt:    i.CreatedAt,
	}, nil
}

// ImportFromPG creates an Import from ImportPG
func ImportFromPG(pg *ImportPG) (*Import, error) {
	var result importer.Result
	if err := json.Unmarshal([]byte(pg.Result), &result); err != nil {
		return nil, fmt.Errorf("decode import %s: %w", pg.ID, err)
	}

	return &Import{
		ID:          pg.ID,
		SourceName:  pg.SourceName,
		ContentHash: pg.ContentHash,
		UnitSystem:  pg.UnitSystem,
		Result:      &result,
		UpdatedAt:   pg.UpdatedAt,
		CreatedAt:   pg.CreatedAt,
	}, nil
}
