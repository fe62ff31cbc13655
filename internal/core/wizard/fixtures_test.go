package wizard

import "github.com/sgirs-cali/portal/internal/core/domain"

// wasteStep is step 1 of the survey: a yes/no question whose "Sí" option
// requires a supporting document, and a dependent free-text question shown
// only after "Sí".
func wasteStep() Step {
	questions := []domain.Question{
		{ID: "q-separation", Number: 1, Prompt: "¿Separa los residuos en la fuente?", Kind: domain.KindYesNo, AllowsAttachment: true, Order: 1},
		{ID: "q-separation-detail", Number: 1, Prompt: "Describa el proceso de separación", Kind: domain.KindFreeText, Order: 2,
			Dependency: &domain.Dependency{DependsOn: "q-separation", TriggerOptionID: "opt-si"}},
		{ID: "q-retired", Number: 1, Prompt: "Pregunta retirada", Kind: domain.KindYesNo, Status: domain.QuestionInactive, Order: 3},
	}
	options := []domain.AnswerOption{
		{ID: "opt-no", QuestionID: "q-separation", Order: 2, Label: "No"},
		{ID: "opt-si", QuestionID: "q-separation", Order: 1, Label: "Sí", RequiresAttachment: true},
		{ID: "opt-orphan", QuestionID: "q-unknown", Order: 1, Label: "Huérfana"},
	}
	return NewStep(1, questions, options)
}

func plainStep(n int) Step {
	qid := "q-step-" + string(rune('0'+n))
	return NewStep(n,
		[]domain.Question{{ID: qid, Number: n, Kind: domain.KindYesNo, Order: 1}},
		[]domain.AnswerOption{
			{ID: qid + "-si", QuestionID: qid, Order: 1, Label: "Sí"},
			{ID: qid + "-no", QuestionID: qid, Order: 2, Label: "No"},
		},
	)
}

func validPDF() domain.Attachment {
	return domain.Attachment{Name: "plan-manejo.pdf", ContentType: "application/pdf", Size: 2048, Key: "attachments/p1/u1/q-separation/abc-plan-manejo.pdf"}
}
