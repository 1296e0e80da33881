package plan

import "github.com/yutoapp/yuto/internal/group"

// Requests

type CreatePlanRequest struct {
	Title  string `json:"title"`
	Amount *int64 `json:"amount,omitempty"`
	Slots  *int   `json:"slots,omitempty"`
}

// PromotePlanRequest converts a plan into a paying group. TotalAmount is
// required here even when the plan carried an estimate, since the final bill
// is only known at promotion time.
type PromotePlanRequest struct {
	TotalAmount int64  `json:"total_amount"`
	GroupType   string `json:"group_type"`
}

// Responses

type PlanResponse struct {
	ID        string           `json:"id"`
	CreatorID string           `json:"creator_id"`
	Title     string           `json:"title"`
	Amount    *int64           `json:"amount,omitempty"`
	Slots     *int             `json:"slots,omitempty"`
	Status    Status           `json:"status"`
	Members   []MemberResponse `json:"members,omitempty"`
	CreatedAt string           `json:"created_at"`
}

type MemberResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	JoinedAt string `json:"joined_at"`
}

type PromoteResponse struct {
	Plan  PlanResponse         `json:"plan"`
	Group *group.GroupResponse `json:"group"`
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func (p *Plan) ToResponse() PlanResponse {
	return PlanResponse{
		ID:        p.ID.String(),
		CreatorID: p.CreatorID.String(),
		Title:     p.Title,
		Amount:    p.Amount,
		Slots:     p.Slots,
		Status:    p.Status,
		CreatedAt: p.CreatedAt.Format(timeLayout),
	}
}

func (p *Plan) ToResponseWithMembers(members []Member) PlanResponse {
	resp := p.ToResponse()
	resp.Members = make([]MemberResponse, 0, len(members))
	for _, m := range members {
		resp.Members = append(resp.Members, m.ToResponse())
	}
	return resp
}

func (m *Member) ToResponse() MemberResponse {
	return MemberResponse{
		UserID:   m.UserID.String(),
		Username: m.Username,
		JoinedAt: m.JoinedAt.Format(timeLayout),
	}
}
