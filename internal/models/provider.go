package models

import "gorm.io/gorm"

// TopUpProvider is static reference data describing an external top-up
// channel. Read-only to the core; whether a provider demands a reference
// drives order validation.
type TopUpProvider struct {
	gorm.Model
	Name              string `gorm:"uniqueIndex;not null" json:"name"`
	Active            bool   `gorm:"default:true" json:"active"`
	RequiresReference bool   `gorm:"default:false" json:"requires_reference"`
}
