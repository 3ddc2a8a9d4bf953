package registry

import (
	"slices"

	"github.com/oshokin/chiller-supervisor/internal/domain/alarm"
)

// Shorthands keeping the rulebook table readable.
const (
	warn = alarm.KindWarning
	trip = alarm.KindAlarm

	medium   = alarm.PriorityMedium
	high     = alarm.PriorityHigh
	critical = alarm.PriorityCritical

	gt   = alarm.OperatorGreaterThan
	lt   = alarm.OperatorLessThan
	eq   = alarm.OperatorEqual
	band = alarm.OperatorBand
)

// warning builds an auto-clearing warning row with the standard controller timing.
func warning(code, name, source string, op alarm.Operator, threshold float64) alarm.Definition {
	return alarm.Definition{
		Code:      code,
		Name:      name,
		Kind:      warn,
		Priority:  medium,
		AutoClear: true,
		DebounceS: 3,
		ClearS:    2,
		Source:    source,
		Operator:  op,
		Threshold: threshold,
	}
}

// latchedTrip builds a latched trip row.
func latchedTrip(
	code, name string,
	priority alarm.Priority,
	debounceS, minOnS uint16,
	source string,
	op alarm.Operator,
	threshold float64,
) alarm.Definition {
	return alarm.Definition{
		Code:      code,
		Name:      name,
		Kind:      trip,
		Priority:  priority,
		Latched:   true,
		DebounceS: debounceS,
		MinOnS:    minOnS,
		Source:    source,
		Operator:  op,
		Threshold: threshold,
	}
}

//nolint:gochecknoglobals // The rulebook is versioned with the binary.
var builtin = []alarm.Definition{
	// Warnings.
	warning("LOW_SUCTION_PRESSURE", "Low Suction Pressure", "SuctionPressure", lt, 110),
	warning("HIGH_DISCHARGE_PRESSURE_WARN", "High Discharge Pressure (warn)", "DischargePressure", gt, 350),
	warning("LOW_SUPERHEAT", "Low Suction Superheat (warn)", "SuctionSuperheat", lt, 4),
	warning("HIGH_SUPERHEAT", "High Suction Superheat (warn)", "SuctionSuperheat", gt, 18),
	warning("LOW_SUBCOOLING", "Low Subcooling (warn)", "Subcooling", lt, 5),
	warning("HIGH_SUBCOOLING", "High Subcooling (warn)", "Subcooling", gt, 25),
	warning("LOW_EVAP_FLOW", "Low Evaporator Flow (warn)", "EvapFlowmeter", lt, 0.5),
	warning("LOW_COND_FLOW", "Low Condenser Flow (warn)", "CondFlowmeter", lt, 0.5),
	warning("CURRENT_IMBALANCE", "Motor Current Imbalance (warn)", "MotorCurrentImbalance", gt, 10),
	warning("VOLTAGE_IMBALANCE", "Line Voltage Imbalance (warn)", "VoltageImbalance", gt, 5),
	warning("LOW_SAT_SUCTION_TEMP", "Low Sat Suction Temp (warn)", "SatSuctionTemp", lt, 20),
	warning("HIGH_SAT_SUCTION_TEMP", "High Sat Suction Temp (warn)", "SatSuctionTemp", gt, 55),
	warning("LOW_SAT_DISCH_TEMP", "Low Sat Discharge Temp (warn)", "SatDischargeTemp", lt, 80),
	warning("HIGH_SAT_DISCH_TEMP", "High Sat Discharge Temp (warn)", "SatDischargeTemp", gt, 140),
	warning("LOW_COND_DELTA_T", "Low Condenser ΔT (warn)", "CondDeltaT", lt, 3),
	warning("HIGH_COND_DELTA_T", "High Condenser ΔT (warn)", "CondDeltaT", gt, 25),
	warning("LOW_EVAP_DELTA_T", "Low Evaporator ΔT (warn)", "EvapDeltaT", lt, 1),
	warning("HIGH_EVAP_DELTA_T", "High Evaporator ΔT (warn)", "EvapDeltaT", gt, 15),
	warning("LOW_HIGH_COND_LWT_EWT", "Condenser EWT/LWT out of bounds (warn)", "CondLWT", band, 0),
	warning("LOW_HIGH_EVAP_LWT_EWT", "Evap EWT/LWT out of bounds (warn)", "ChwLWT", band, 0),

	// Trips.
	latchedTrip("HIGH_DISCHARGE_TEMP", "High Discharge Temperature", high, 5, 10, "DischargeTemp", gt, 230),
	latchedTrip("HIGH_DISCHARGE_PRESSURE", "High Discharge Pressure (trip)", critical, 2, 30, "DischargePressure", gt, 435),
	latchedTrip("LOW_SUCTION_PRESSURE", "Low Suction Pressure (trip)", critical, 2, 30, "SuctionPressure", lt, 90),
	latchedTrip("LOW_SUCTION_SUPERHEAT", "Low Suction Superheat (trip)", high, 5, 10, "SuctionSuperheat", lt, 2),
	latchedTrip("HIGH_SUCTION_SUPERHEAT", "High Suction Superheat (trip)", high, 5, 10, "SuctionSuperheat", gt, 25),
	latchedTrip("LOW_DISCHARGE_SUPERHEAT", "Low Discharge Superheat (trip)", high, 5, 10, "DischargeSuperheat", lt, 10),
	latchedTrip("HIGH_DISCHARGE_SUPERHEAT", "High Discharge Superheat (trip)", high, 5, 10, "DischargeSuperheat", gt, 70),
	latchedTrip("LOW_SUBCOOLING", "Low Subcooling (trip)", high, 5, 10, "Subcooling", lt, 2),
	latchedTrip("HIGH_SUBCOOLING", "High Subcooling (trip)", high, 5, 10, "Subcooling", gt, 35),
	latchedTrip("VFD_ALARM", "VFD Alarm", critical, 1, 5, "VFDFault", eq, 1),
	latchedTrip("LOSS_OF_EVAP_FLOW", "Loss of Evaporator Flow", critical, 3, 10, "EvapFlowProof", eq, 0),
	latchedTrip("LOSS_OF_COND_FLOW", "Loss of Condenser Flow", critical, 3, 10, "CondFlowProof", eq, 0),
	latchedTrip("WATER_LEVEL_LOW", "Tower Basin Water Level Low", critical, 2, 30, "TowerLevelOK", eq, 0),
	latchedTrip("LOW_MOTOR_CURRENT", "Low Motor Current", high, 5, 10, "MotorCurrent", lt, 0.5),
	latchedTrip("HIGH_MOTOR_CURRENT", "High Motor Current", high, 5, 10, "MotorCurrent", gt, 80),
	latchedTrip("ANY_SENSOR_FAILED", "Sensor Failed", high, 2, 10, "SensorValidity", eq, 0),
	latchedTrip("LOSS_OF_PHASE", "Loss of Phase", critical, 1, 10, "PhaseOK", eq, 0),
	latchedTrip("PUMP_RUNNING_WHEN_UNIT_OFF", "Pump running while unit Off", medium, 5, 10, "PumpCmdFbMismatch", eq, 1),
	latchedTrip("LOSS_OF_COMM", "Loss of Communication", critical, 2, 10, "CommsOK", eq, 0),
	latchedTrip("EEV_FAILED", "Expansion Valve Failed", high, 5, 10, "EEVHealthy", eq, 0),
	latchedTrip("FREEZE_PROTECTION", "Freeze Trip", critical, 1, 30, "FreezeTrip", eq, 1),
	latchedTrip("LOW_OAT_LOCKOUT", "Low OAT Lockout", medium, 1, 30, "LowOATLock", eq, 1),
	latchedTrip("MAX_STARTS_EXCEEDED", "Max Compressor Starts Exceeded", medium, 0, 0, "StartRateExceeded", eq, 1),
}

// Default returns a copy of the compiled-in chiller rulebook.
func Default() []alarm.Definition {
	return slices.Clone(builtin)
}
