package models

// Diet strategy labels attached to prescribed days
const (
	StrategyDeficit       = "deficit"
	StrategyRefeed        = "refeed"
	StrategySurplus       = "surplus"
	StrategyMaintenance   = "maintenance"
	StrategyDepletion     = "depletion"
	StrategyCarbLoading   = "carb_loading"
	StrategySpilloverCtrl = "spillover_control"
	StrategyShowDay       = "show_day"
	StrategyMiniCut       = "mini_cut"
)

// Alert keys reported by the nutrition engine
const (
	AlertEnergyBaseline       = "energy_baseline"
	AlertMetabolicSuppression = "metabolic_suppression"
	AlertCalorieAdjustment    = "calorie_adjustment"
	AlertPlateauProtocol      = "plateau_protocol"
)

// MacroDay is one prescribed day of the weekly plan
type MacroDay struct {
	Day      int    `json:"day"`
	Strategy string `json:"strategy"`
	Calories int    `json:"calories"`
	ProteinG int    `json:"protein_g"`
	CarbsG   int    `json:"carbs_g"`
	FatG     int    `json:"fat_g"`
}

// MacroTable is a seven-day prescription produced for one phase
type MacroTable struct {
	Phase            PhaseState        `json:"phase"`
	MaintenanceKcal  int               `json:"maintenance_kcal"`
	AdjustedBaseKcal int               `json:"adjusted_base_kcal"`
	SuppressionKcal  int               `json:"suppression_kcal"`
	WeeksInDeficit   int               `json:"weeks_in_deficit"`
	Days             []MacroDay        `json:"days"`
	Alerts           map[string]string `json:"alerts,omitempty"`
}
