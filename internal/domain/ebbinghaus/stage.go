package ebbinghaus

import "github.com/DaniilZebzeev/Ebinhauzer-bot/internal/domain"

// MonthlyStage is the terminal stage index. Every stage at or beyond it
// collapses to the monthly phase; the stage counter is clamped here rather
// than incremented so the interval can never compress back toward zero.
const MonthlyStage = 8

var stageKinds = map[int]domain.RepetitionKind{
	0: domain.KindImmediate,
	1: domain.KindShortTerm,
	2: domain.KindEvening,
	3: domain.KindDay1,
	4: domain.KindDay3,
	5: domain.KindDay7,
	6: domain.KindDay14,
	7: domain.KindDay30,
}

var stageDescriptions = map[int]string{
	0: "right away",
	1: "in 20 minutes",
	2: "tonight at 20:00",
	3: "tomorrow at 07:00",
	4: "in 3 days at 07:00",
	5: "in 7 days at 07:00",
	6: "in 14 days at 07:00",
	7: "in 30 days at 07:00",
}

// StageKind maps a stage index to its symbolic repetition kind.
// Stages 0-7 map one-to-one; every stage >= 8 maps to monthly.
// Negative stages are out of contract; callers guarantee stage >= 0.
func StageKind(stage int) domain.RepetitionKind {
	if stage >= MonthlyStage {
		return domain.KindMonthly
	}
	return stageKinds[stage]
}

// StageDescription returns a human-readable description of a stage, with
// the same collapsing rule for stages >= 8.
func StageDescription(stage int) string {
	if stage >= MonthlyStage {
		return "once a month at 07:00"
	}
	return stageDescriptions[stage]
}
