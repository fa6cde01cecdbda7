package transport

import (
	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/domain"
	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/repository"
	"github.com/Niconord59/crm-axivity-sub001/internal/lifecycle/service"
)

const dateLayout = "2006-01-02"

func ToContactResponse(c repository.Contact) ContactResponse {
	resp := ContactResponse{
		ID:                      c.ID,
		FirstName:               c.FirstName,
		LastName:                c.LastName,
		DisplayName:             c.DisplayName(),
		Email:                   c.Email,
		OwnerAccountID:          c.OwnerAccountID,
		LifecycleStageChangedAt: c.LifecycleStageChangedAt,
		CreatedAt:               c.CreatedAt,
	}
	if c.LifecycleStage != nil {
		stage := string(*c.LifecycleStage)
		resp.LifecycleStage = &stage
		resp.LifecycleStageLabel = c.LifecycleStage.Label()
	}
	if next := domain.NextStage(c.LifecycleStage); next != nil {
		n := string(*next)
		resp.NextStage = &n
	}
	return resp
}

func ToContactListResponse(contacts []repository.Contact) ContactListResponse {
	items := make([]ContactResponse, 0, len(contacts))
	for _, c := range contacts {
		items = append(items, ToContactResponse(c))
	}
	return ContactListResponse{Items: items, Total: len(items)}
}

func ToStageChangeResponse(r service.StageChangeResult) StageChangeResponse {
	resp := StageChangeResponse{
		ID:                      r.ID,
		LifecycleStage:          string(r.LifecycleStage),
		LifecycleStageChangedAt: r.LifecycleStageChangedAt,
	}
	if r.Audit != nil {
		ok := r.Audit.OK()
		resp.AuditRecorded = &ok
	}
	return resp
}

func ToConversionResponse(r service.ConversionResult) ConversionResponse {
	effects := make([]SideEffectResponse, 0, len(r.SideEffects))
	for _, o := range r.SideEffects {
		e := SideEffectResponse{Step: o.Step, OK: o.OK()}
		if o.Err != nil {
			e.Error = o.Err.Error()
		}
		effects = append(effects, e)
	}
	return ConversionResponse{
		ContactID:     r.ContactID,
		AccountID:     r.AccountID,
		OpportunityID: r.OpportunityID,
		AccountNudged: r.AccountNudged,
		SideEffects:   effects,
	}
}

func ToInteractionListResponse(items []repository.Interaction) InteractionListResponse {
	out := make([]InteractionResponse, 0, len(items))
	for _, i := range items {
		out = append(out, InteractionResponse{
			ID:               i.ID,
			SubjectContactID: i.SubjectContactID,
			AccountID:        i.AccountID,
			Kind:             string(i.Kind),
			Summary:          i.Summary,
			OccurredAt:       i.OccurredAt,
		})
	}
	return InteractionListResponse{Items: out}
}

func ToOpportunityResponse(d service.OpportunityDetail) OpportunityResponse {
	o := d.Opportunity
	resp := OpportunityResponse{
		ID:                  o.ID,
		Name:                o.Name,
		AccountID:           o.AccountID,
		Stage:               string(o.Stage),
		EstimatedValueCents: o.EstimatedValueCents,
		ProbabilityPercent:  o.ProbabilityPercent,
		WeightedValueCents:  d.WeightedValueCents,
		PrimaryContactID:    o.PrimaryContactID,
		Notes:               o.Notes,
		Contacts:            make([]OpportunityContactResponse, 0, len(d.Contacts)),
		CreatedAt:           o.CreatedAt,
	}
	if o.ExpectedCloseDate != nil {
		date := o.ExpectedCloseDate.Format(dateLayout)
		resp.ExpectedCloseDate = &date
	}
	for _, link := range d.Contacts {
		resp.Contacts = append(resp.Contacts, OpportunityContactResponse{
			ContactID: link.ContactID,
			Role:      string(link.Role),
			IsPrimary: link.IsPrimary,
		})
	}
	return resp
}
