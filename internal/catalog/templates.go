package catalog

import "trainsched/internal/models"

func ex(name string, sets int, reps string, restSec int) models.Exercise {
	return models.Exercise{Name: name, Sets: sets, Reps: reps, RestSec: restSec}
}

func cardio(name string, durationMin int, intensity string) models.Exercise {
	return models.Exercise{Name: name, DurationMin: durationMin, Intensity: intensity}
}

var stdWarmup = []models.Exercise{
	cardio("Easy spin or brisk walk", 5, "easy"),
	ex("Dynamic stretching circuit", 1, "8 per side", 0),
}

var stdCooldown = []models.Exercise{
	cardio("Walk down", 3, "easy"),
	ex("Static stretching", 1, "30s per muscle", 0),
}

var builtinTemplates = []*Template{
	// Push
	{
		ID: "push-gym-a", SessionType: models.StrengthPush, MinEquipment: models.EquipmentFullGym,
		Warmup: stdWarmup, Cooldown: stdCooldown, BaseDuration: 55, BaseTSS: 62,
		Main: []models.Exercise{
			ex("Barbell bench press", 4, "6-8", 150),
			ex("Seated dumbbell shoulder press", 3, "8-10", 120),
			ex("Incline dumbbell press", 3, "10-12", 90),
			ex("Cable triceps pushdown", 3, "12-15", 60),
		},
	},
	{
		ID: "push-gym-b", SessionType: models.StrengthPush, MinEquipment: models.EquipmentFullGym,
		Warmup: stdWarmup, Cooldown: stdCooldown, BaseDuration: 55, BaseTSS: 60,
		Main: []models.Exercise{
			ex("Standing overhead press", 4, "5-7", 150),
			ex("Weighted dips", 3, "8-10", 120),
			ex("Cable fly", 3, "12-15", 75),
			ex("Lateral raise", 3, "15", 60),
		},
	},
	{
		ID: "push-home", SessionType: models.StrengthPush, MinEquipment: models.EquipmentHomeBasic,
		Warmup: stdWarmup, Cooldown: stdCooldown, BaseDuration: 45, BaseTSS: 52,
		Main: []models.Exercise{
			ex("Dumbbell floor press", 4, "8-10", 120),
			ex("Dumbbell shoulder press", 3, "10-12", 90),
			ex("Push-up", 3, "max-2", 90),
			ex("Overhead triceps extension", 3, "12-15", 60),
		},
	},
	{
		ID: "push-bw", SessionType: models.StrengthPush, MinEquipment: models.EquipmentBodyweight,
		Warmup: stdWarmup, Cooldown: stdCooldown, BaseDuration: 40, BaseTSS: 45,
		Main: []models.Exercise{
			ex("Push-up", 4, "max-2", 90),
			ex("Pike push-up", 3, "8-12", 90),
			ex("Decline push-up", 3, "10-12", 90),
			ex("Bench dip", 3, "12-15", 60),
		},
	},

	// Pull
	{
		ID: "pull-gym-a", SessionType: models.StrengthPull, MinEquipment: models.EquipmentFullGym,
		Warmup: stdWarmup, Cooldown: stdCooldown, BaseDuration: 55, BaseTSS: 62,
		Main: []models.Exercise{
			ex("Deadlift", 4, "4-6", 180),
			ex("Weighted pull-up", 3, "6-8", 150),
			ex("Barbell row", 3, "8-10", 120),
			ex("Face pull", 3, "15", 60),
		},
	},
	{
		ID: "pull-gym-b", SessionType: models.StrengthPull, MinEquipment: models.EquipmentFullGym,
		Warmup: stdWarmup, Cooldown: stdCooldown, BaseDuration: 55, BaseTSS: 58,
		Main: []models.Exercise{
			ex("Lat pulldown", 4, "8-10", 120),
			ex("Seated cable row", 3, "10-12", 90),
			ex("Dumbbell shrug", 3, "12-15", 75),
			ex("Hammer curl", 3, "12", 60),
		},
	},
	{
		ID: "pull-home", SessionType: models.StrengthPull, MinEquipment: models.EquipmentHomeBasic,
		Warmup: stdWarmup, Cooldown: stdCooldown, BaseDuration: 45, BaseTSS: 50,
		Main: []models.Exercise{
			ex("One-arm dumbbell row", 4, "8-10", 90),
			ex("Band pull-apart", 3, "15-20", 60),
			ex("Dumbbell curl", 3, "10-12", 60),
			ex("Reverse fly", 3, "12-15", 60),
		},
	},
	{
		ID: "pull-bw", SessionType: models.StrengthPull, MinEquipment: models.EquipmentBodyweight,
		Warmup: stdWarmup, Cooldown: stdCooldown, BaseDuration: 40, BaseTSS: 44,
		Main: []models.Exercise{
			ex("Doorframe row or towel row", 4, "10-12", 90),
			ex("Superman hold", 3, "30s", 60),
			ex("Reverse snow angel", 3, "12-15", 60),
			ex("Isometric towel curl", 3, "20s", 45),
		},
	},

	// Upper
	{
		ID: "upper-gym", SessionType: models.StrengthUpper, MinEquipment: models.EquipmentFullGym,
		Warmup: stdWarmup, Cooldown: stdCooldown, BaseDuration: 60, BaseTSS: 65,
		Main: []models.Exercise{
			ex("Barbell bench press", 4, "6-8", 150),
			ex("Barbell row", 4, "6-8", 150),
			ex("Overhead press", 3, "8-10", 120),
			ex("Lat pulldown", 3, "10-12", 90),
			ex("EZ-bar curl", 2, "12", 60),
		},
	},
	{
		ID: "upper-home", SessionType: models.StrengthUpper, MinEquipment: models.EquipmentHomeBasic,
		Warmup: stdWarmup, Cooldown: stdCooldown, BaseDuration: 50, BaseTSS: 55,
		Main: []models.Exercise{
			ex("Dumbbell bench press", 4, "8-10", 120),
			ex("One-arm dumbbell row", 4, "8-10", 120),
			ex("Arnold press", 3, "10-12", 90),
			ex("Dumbbell curl", 3, "12", 60),
		},
	},
	{
		ID: "upper-bw", SessionType: models.StrengthUpper, MinEquipment: models.EquipmentBodyweight,
		Warmup: stdWarmup, Cooldown: stdCooldown, BaseDuration: 40, BaseTSS: 46,
		Main: []models.Exercise{
			ex("Push-up", 4, "max-2", 90),
			ex("Towel row", 4, "10-12", 90),
			ex("Pike push-up", 3, "8-10", 90),
			ex("Plank shoulder tap", 3, "20", 60),
		},
	},

	// Lower
	{
		ID: "lower-gym", SessionType: models.StrengthLower, MinEquipment: models.EquipmentFullGym,
		Warmup: stdWarmup, Cooldown: stdCooldown, BaseDuration: 60, BaseTSS: 68,
		Main: []models.Exercise{
			ex("Back squat", 4, "5-7", 180),
			ex("Romanian deadlift", 3, "8-10", 150),
			ex("Leg press", 3, "10-12", 120),
			ex("Standing calf raise", 3, "15", 60),
		},
	},
	{
		ID: "lower-home", SessionType: models.StrengthLower, MinEquipment: models.EquipmentHomeBasic,
		Warmup: stdWarmup, Cooldown: stdCooldown, BaseDuration: 50, BaseTSS: 56,
		Main: []models.Exercise{
			ex("Goblet squat", 4, "10-12", 120),
			ex("Dumbbell Romanian deadlift", 3, "10-12", 120),
			ex("Walking lunge", 3, "10 per leg", 90),
			ex("Single-leg calf raise", 3, "12-15", 60),
		},
	},
	{
		ID: "lower-bw", SessionType: models.StrengthLower, MinEquipment: models.EquipmentBodyweight,
		Warmup: stdWarmup, Cooldown: stdCooldown, BaseDuration: 40, BaseTSS: 48,
		Main: []models.Exercise{
			ex("Bodyweight squat", 4, "15-20", 75),
			ex("Bulgarian split squat", 3, "10 per leg", 90),
			ex("Single-leg glute bridge", 3, "12 per side", 60),
			ex("Wall sit", 3, "45s", 60),
		},
	},

	// Full body
	{
		ID: "full-gym", SessionType: models.StrengthFull, MinEquipment: models.EquipmentFullGym,
		Warmup: stdWarmup, Cooldown: stdCooldown, BaseDuration: 60, BaseTSS: 66,
		Main: []models.Exercise{
			ex("Back squat", 3, "6-8", 150),
			ex("Barbell bench press", 3, "6-8", 150),
			ex("Barbell row", 3, "8-10", 120),
			ex("Romanian deadlift", 3, "8-10", 120),
			ex("Plank", 3, "45s", 60),
		},
	},
	{
		ID: "full-home", SessionType: models.StrengthFull, MinEquipment: models.EquipmentHomeBasic,
		Warmup: stdWarmup, Cooldown: stdCooldown, BaseDuration: 50, BaseTSS: 56,
		Main: []models.Exercise{
			ex("Goblet squat", 3, "10-12", 120),
			ex("Dumbbell floor press", 3, "10-12", 120),
			ex("One-arm dumbbell row", 3, "10 per side", 90),
			ex("Dumbbell Romanian deadlift", 3, "10-12", 90),
		},
	},
	{
		ID: "full-bw", SessionType: models.StrengthFull, MinEquipment: models.EquipmentBodyweight,
		Warmup: stdWarmup, Cooldown: stdCooldown, BaseDuration: 40, BaseTSS: 48,
		Main: []models.Exercise{
			ex("Bodyweight squat", 3, "15-20", 75),
			ex("Push-up", 3, "max-2", 90),
			ex("Towel row", 3, "10-12", 90),
			ex("Glute bridge", 3, "15", 60),
			ex("Plank", 3, "45s", 45),
		},
	},

	// Endurance
	{
		ID: "z2-run", SessionType: models.EnduranceZone2, MinEquipment: models.EquipmentBodyweight,
		Warmup: []models.Exercise{cardio("Walk to easy jog build", 5, "easy")},
		Main:   []models.Exercise{cardio("Zone 2 run", 40, "conversational pace")},
		Cooldown: stdCooldown, BaseDuration: 48, BaseTSS: 45,
	},
	{
		ID: "z2-ride", SessionType: models.EnduranceZone2, MinEquipment: models.EquipmentHomeBasic,
		Warmup: []models.Exercise{cardio("Easy spin", 5, "easy")},
		Main:   []models.Exercise{cardio("Zone 2 ride", 50, "steady, nose-breathing")},
		Cooldown: stdCooldown, BaseDuration: 58, BaseTSS: 48,
	},
	{
		ID: "tempo-run", SessionType: models.EnduranceTempo, MinEquipment: models.EquipmentBodyweight,
		Warmup: []models.Exercise{cardio("Easy jog", 10, "easy")},
		Main:   []models.Exercise{cardio("Tempo run", 25, "comfortably hard")},
		Cooldown: stdCooldown, BaseDuration: 40, BaseTSS: 55,
	},
	{
		ID: "intervals-run", SessionType: models.EnduranceIntervals, MinEquipment: models.EquipmentBodyweight,
		Warmup: []models.Exercise{cardio("Easy jog plus strides", 12, "easy")},
		Main: []models.Exercise{
			cardio("5 x 3min hard / 2min float", 25, "5k effort"),
		},
		Cooldown: stdCooldown, BaseDuration: 42, BaseTSS: 62,
	},
	{
		ID: "intervals-ride", SessionType: models.EnduranceIntervals, MinEquipment: models.EquipmentHomeBasic,
		Warmup: []models.Exercise{cardio("Progressive spin", 10, "easy to moderate")},
		Main: []models.Exercise{
			cardio("6 x 2min VO2 / 3min easy", 30, "hard"),
		},
		Cooldown: stdCooldown, BaseDuration: 45, BaseTSS: 65,
	},

	// HIIT
	{
		ID: "hiit-circuit", SessionType: models.HIIT, MinEquipment: models.EquipmentBodyweight,
		Warmup: stdWarmup, Cooldown: stdCooldown, BaseDuration: 30, BaseTSS: 50,
		Main: []models.Exercise{
			ex("Burpee", 4, "40s on / 20s off", 20),
			ex("Jump squat", 4, "40s on / 20s off", 20),
			ex("Mountain climber", 4, "40s on / 20s off", 20),
			ex("High knees", 4, "40s on / 20s off", 20),
		},
	},
	{
		ID: "hiit-kb", SessionType: models.HIIT, MinEquipment: models.EquipmentHomeBasic,
		Warmup: stdWarmup, Cooldown: stdCooldown, BaseDuration: 30, BaseTSS: 52,
		Main: []models.Exercise{
			ex("Kettlebell swing", 5, "30s on / 30s off", 30),
			ex("Goblet squat thruster", 5, "30s on / 30s off", 30),
			ex("Dumbbell push press", 5, "30s on / 30s off", 30),
		},
	},
	{
		ID: "hiit-sprints", SessionType: models.HIIT, MinEquipment: models.EquipmentBodyweight,
		Warmup: []models.Exercise{cardio("Jog plus drills", 10, "easy")},
		Main: []models.Exercise{
			cardio("8 x 20s hill sprint / 100s walk", 16, "max effort"),
		},
		Cooldown: stdCooldown, BaseDuration: 30, BaseTSS: 55,
	},

	// Mobility and recovery
	{
		ID: "mobility-flow", SessionType: models.Mobility, MinEquipment: models.EquipmentBodyweight,
		Warmup: []models.Exercise{cardio("Easy walk", 3, "easy")},
		Main: []models.Exercise{
			ex("Hip opener flow", 2, "60s per side", 15),
			ex("Thoracic rotations", 2, "10 per side", 15),
			ex("Deep squat hold", 3, "45s", 30),
			ex("Hamstring floss", 2, "10 per side", 15),
		},
		Cooldown: []models.Exercise{ex("Box breathing", 1, "3min", 0)},
		BaseDuration: 25, BaseTSS: 15,
	},
	{
		ID: "mobility-yoga", SessionType: models.Mobility, MinEquipment: models.EquipmentBodyweight,
		Warmup: []models.Exercise{cardio("Cat-cow", 2, "easy")},
		Main: []models.Exercise{
			ex("Sun salutation", 4, "1 round", 20),
			ex("Pigeon pose", 2, "90s per side", 15),
			ex("Couch stretch", 2, "60s per side", 15),
		},
		Cooldown: []models.Exercise{ex("Savasana", 1, "3min", 0)},
		BaseDuration: 25, BaseTSS: 14,
	},
	{
		ID: "recovery-walk", SessionType: models.ActiveRecovery, MinEquipment: models.EquipmentBodyweight,
		Warmup: nil,
		Main: []models.Exercise{
			cardio("Easy walk", 30, "very easy"),
			ex("Foam roll lower body", 1, "5min", 0),
		},
		Cooldown: []models.Exercise{ex("Light stretching", 1, "5min", 0)},
		BaseDuration: 40, BaseTSS: 10,
	},
	{
		ID: "recovery-spin", SessionType: models.ActiveRecovery, MinEquipment: models.EquipmentHomeBasic,
		Warmup: nil,
		Main: []models.Exercise{
			cardio("Recovery spin", 25, "very easy"),
			ex("Foam roll full body", 1, "8min", 0),
		},
		Cooldown: []models.Exercise{ex("Light stretching", 1, "5min", 0)},
		BaseDuration: 38, BaseTSS: 12,
	},
}
