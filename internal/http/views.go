package http

import "finanzas/internal/core"

// installmentView is an installment with its derived repayment state.
type installmentView struct {
	core.Installment
	PaidCount       int                    `json:"paidCount"`
	TotalPaid       core.Money             `json:"totalPaid"`
	RemainingDebt   core.Money             `json:"remainingDebt"`
	IsFullyPaid     bool                   `json:"isFullyPaid"`
	Status          core.InstallmentStatus `json:"status"`
	ProgressPercent int                    `json:"progressPercent"`
}

func newInstallmentView(in core.Installment) installmentView {
	return installmentView{
		Installment:     in,
		PaidCount:       in.PaidCount(),
		TotalPaid:       in.TotalPaid(),
		RemainingDebt:   in.DisplayRemaining(),
		IsFullyPaid:     in.IsFullyPaid(),
		Status:          in.Status(),
		ProgressPercent: in.ProgressPercent(),
	}
}

func installmentViews(list []core.Installment) []installmentView {
	out := make([]installmentView, 0, len(list))
	for _, in := range list {
		out = append(out, newInstallmentView(in))
	}
	return out
}

type goalView struct {
	core.SavingsGoal
	Progress int `json:"progress"`
}

func newGoalView(g core.SavingsGoal) goalView {
	return goalView{SavingsGoal: g, Progress: g.Progress()}
}

func goalViews(list []core.SavingsGoal) []goalView {
	out := make([]goalView, 0, len(list))
	for _, g := range list {
		out = append(out, newGoalView(g))
	}
	return out
}
