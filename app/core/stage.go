package core

import "SmilePos/app/models"

// stageRank orders the service stages; higher never yields to lower
var stageRank = map[models.Stage]int{
	models.StageEmpty:    0,
	models.StageDrinks:   1,
	models.StageStarters: 2,
	models.StageBurgers:  3,
	models.StageDesserts: 4,
}

// categoryStage maps a menu category to the stage it drives
var categoryStage = map[string]models.Stage{
	"bebidas":   models.StageDrinks,
	"entrantes": models.StageStarters,
	"burgers":   models.StageBurgers,
	"postres":   models.StageDesserts,
}

// StageForCategory returns the stage a category maps to, or StageEmpty when
// the category does not drive the progress indicator.
func StageForCategory(category string) models.Stage {
	if s, ok := categoryStage[category]; ok {
		return s
	}
	return models.StageEmpty
}

// AdvanceStage computes the stage after adding an item of the given category.
// The classifier is a one-way ratchet: it only moves forward. An order never
// stays at empty once it has an item, so an unmapped first category still
// lifts the order to drinks.
func AdvanceStage(current models.Stage, category string) models.Stage {
	target := StageForCategory(category)
	if current == models.StageEmpty && target == models.StageEmpty {
		return models.StageDrinks
	}
	if stageRank[target] > stageRank[current] {
		return target
	}
	return current
}
