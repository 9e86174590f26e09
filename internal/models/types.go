package models

// DateLayout is the storage format for schedule dates. All scheduling is
// date-granular in the athlete's local timezone, so dates are kept as plain
// strings rather than timestamps.
const DateLayout = "2006-01-02"

// SessionType identifies what kind of training a session prescribes
type SessionType string

const (
	StrengthPush       SessionType = "STRENGTH_PUSH"
	StrengthPull       SessionType = "STRENGTH_PULL"
	StrengthUpper      SessionType = "STRENGTH_UPPER"
	StrengthLower      SessionType = "STRENGTH_LOWER"
	StrengthFull       SessionType = "STRENGTH_FULL"
	EnduranceZone2     SessionType = "ENDURANCE_ZONE2"
	EnduranceTempo     SessionType = "ENDURANCE_TEMPO"
	EnduranceIntervals SessionType = "ENDURANCE_INTERVALS"
	HIIT               SessionType = "HIIT"
	Mobility           SessionType = "MOBILITY"
	ActiveRecovery     SessionType = "ACTIVE_RECOVERY"
	Rest               SessionType = "REST"
)

// SessionFamily groups session types into the four training modalities
type SessionFamily string

const (
	FamilyStrength  SessionFamily = "STRENGTH"
	FamilyEndurance SessionFamily = "ENDURANCE"
	FamilyHIIT      SessionFamily = "HIIT"
	FamilyMobility  SessionFamily = "MOBILITY"
)

// Family classifies a session type into its modality. Recovery and rest
// sessions count as mobility work.
func (t SessionType) Family() SessionFamily {
	switch t {
	case StrengthPush, StrengthPull, StrengthUpper, StrengthLower, StrengthFull:
		return FamilyStrength
	case EnduranceZone2, EnduranceTempo, EnduranceIntervals:
		return FamilyEndurance
	case HIIT:
		return FamilyHIIT
	default:
		return FamilyMobility
	}
}

// SessionStatus tracks a session's lifecycle. Transitions are forward-only:
// SCHEDULED may become COMPLETED, MISSED or SKIPPED, and all three are
// terminal. A missed session is replaced by inserting a new session, never by
// reopening the old row.
type SessionStatus string

const (
	StatusScheduled SessionStatus = "SCHEDULED"
	StatusCompleted SessionStatus = "COMPLETED"
	StatusMissed    SessionStatus = "MISSED"
	StatusSkipped   SessionStatus = "SKIPPED"
)

// Terminal reports whether the status permits no further transition
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusMissed || s == StatusSkipped
}

// BlockType is the periodization phase label for a week
type BlockType string

const (
	BlockBase   BlockType = "base"
	BlockBuild  BlockType = "build"
	BlockDeload BlockType = "deload"
)

// Goal is the athlete's primary training goal
type Goal string

const (
	GoalStrength   Goal = "STRENGTH"
	GoalEndurance  Goal = "ENDURANCE"
	GoalWeightLoss Goal = "WEIGHT_LOSS"
	GoalGeneral    Goal = "GENERAL_FITNESS"
	GoalHybrid     Goal = "HYBRID"
)

// GoalRatios is the target mix of modalities for a training week
type GoalRatios struct {
	Strength  float64
	Endurance float64
	HIIT      float64
	Mobility  float64
}

var goalRatios = map[Goal]GoalRatios{
	GoalStrength:   {Strength: 0.60, Endurance: 0.20, HIIT: 0.10, Mobility: 0.10},
	GoalEndurance:  {Strength: 0.25, Endurance: 0.55, HIIT: 0.10, Mobility: 0.10},
	GoalWeightLoss: {Strength: 0.30, Endurance: 0.30, HIIT: 0.30, Mobility: 0.10},
	GoalGeneral:    {Strength: 0.40, Endurance: 0.30, HIIT: 0.20, Mobility: 0.10},
	GoalHybrid:     {Strength: 0.40, Endurance: 0.40, HIIT: 0.10, Mobility: 0.10},
}

// Ratios returns the modality mix for the goal, defaulting to general fitness
// for unknown values
func (g Goal) Ratios() GoalRatios {
	if r, ok := goalRatios[g]; ok {
		return r
	}
	return goalRatios[GoalGeneral]
}

// AllGoals lists every supported goal
func AllGoals() []Goal {
	return []Goal{GoalStrength, GoalEndurance, GoalWeightLoss, GoalGeneral, GoalHybrid}
}

// ExperienceLevel is the athlete's self-reported training experience
type ExperienceLevel string

const (
	Beginner     ExperienceLevel = "BEGINNER"
	Intermediate ExperienceLevel = "INTERMEDIATE"
	Advanced     ExperienceLevel = "ADVANCED"
)

// ExperienceModifiers tune prescribed volume and intensity per level
type ExperienceModifiers struct {
	SetMultiplier  float64
	RestMultiplier float64
	Intensity      string
	RepRange       string
}

var experienceModifiers = map[ExperienceLevel]ExperienceModifiers{
	Beginner:     {SetMultiplier: 0.80, RestMultiplier: 1.20, Intensity: "RPE 6-7", RepRange: "10-12"},
	Intermediate: {SetMultiplier: 1.00, RestMultiplier: 1.00, Intensity: "RPE 7-8", RepRange: "8-10"},
	Advanced:     {SetMultiplier: 1.20, RestMultiplier: 0.90, Intensity: "RPE 8-9", RepRange: "6-8"},
}

// Modifiers returns the prescription modifiers for the level, defaulting to
// intermediate for unknown values
func (e ExperienceLevel) Modifiers() ExperienceModifiers {
	if m, ok := experienceModifiers[e]; ok {
		return m
	}
	return experienceModifiers[Intermediate]
}

// EquipmentTier describes the equipment an athlete has access to
type EquipmentTier string

const (
	EquipmentFullGym    EquipmentTier = "FULL_GYM"
	EquipmentHomeBasic  EquipmentTier = "HOME_BASIC"
	EquipmentBodyweight EquipmentTier = "BODYWEIGHT"
)

// TriggerEvent identifies what caused an adjustment
type TriggerEvent string

const (
	TriggerMissedStrength  TriggerEvent = "MISSED_STRENGTH"
	TriggerMissedEndurance TriggerEvent = "MISSED_ENDURANCE"
	TriggerHighFatigue     TriggerEvent = "HIGH_FATIGUE"
	TriggerLowSleep        TriggerEvent = "LOW_SLEEP"
	TriggerTravelWeek      TriggerEvent = "TRAVEL_WEEK"
)

// ReadinessSource distinguishes self-reported check-ins from device feeds
type ReadinessSource string

const (
	SourceManual ReadinessSource = "MANUAL"
	SourceDevice ReadinessSource = "DEVICE"
)

// MessageCategory classifies outbound notification requests
type MessageCategory string

const (
	MessageCheckIn    MessageCategory = "CHECK_IN"
	MessageEscalation MessageCategory = "ESCALATION"
	MessageMotivation MessageCategory = "MOTIVATION"
	MessagePlanReady  MessageCategory = "PLAN_READY"
	MessageAdjustment MessageCategory = "ADJUSTMENT"
)
