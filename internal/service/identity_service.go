package service

import (
	"flagtest_backend/internal/model"
	"flagtest_backend/internal/util"
)

type IdentityKind string

const (
	IdentityInvite    IdentityKind = "invite"
	IdentityRoster    IdentityKind = "roster"
	IdentityAnonymous IdentityKind = "anonymous"
)

// ParticipantIdentity is the resolved, authorized identity a join request
// acts under. Exactly one kind applies per join; core functions branch on
// Kind instead of probing optional fields.
type ParticipantIdentity struct {
	Kind IdentityKind
	ID   string
}

// ParticipantToken is the stable per-participant segment embedded in attempt
// keys.
func (i ParticipantIdentity) ParticipantToken() string {
	switch i.Kind {
	case IdentityInvite:
		return "inv:" + i.ID
	case IdentityRoster:
		return "sr:" + i.ID
	default:
		return "anon:" + i.ID
	}
}

// Credential is the raw material a join request arrives with. At most one
// of InviteToken/Code is set; AnonymousID carries the per-evaluation cookie
// value when present.
type Credential struct {
	InviteToken string
	Code        string
	AnonymousID string
}

// errInvalidCredential is deliberately generic: callers must not be able to
// distinguish a wrong code from a missing evaluation.
func errInvalidCredential() error {
	return util.NewNotFoundError("Invalid code or link")
}

type IdentityService struct {
	Store       ParticipantStore
	tokenSecret string
}

func NewIdentityService(store ParticipantStore, tokenSecret string) *IdentityService {
	return &IdentityService{Store: store, tokenSecret: tokenSecret}
}

// Resolve determines the canonical identity behind a credential for one
// evaluation. Draft and missing evaluations are indistinguishable from bad
// credentials. For open participation with no prior cookie value a fresh
// anonymous id is minted; the caller is responsible for persisting it in the
// participant's cookie.
func (s *IdentityService) Resolve(evaluationID string, cred Credential) (*ParticipantIdentity, error) {
	evaluation, err := s.Store.GetEvaluation(evaluationID)
	if err != nil {
		return nil, err
	}
	if evaluation == nil || evaluation.Status == model.EvaluationDraft {
		return nil, errInvalidCredential()
	}

	if cred.InviteToken != "" {
		return s.resolveInvite(evaluation, cred.InviteToken)
	}
	if cred.Code != "" {
		return s.resolveRoster(evaluation, cred.Code)
	}
	if evaluation.AllowOpenJoin {
		participantID := cred.AnonymousID
		if participantID == "" {
			participantID = model.GenerateUUID()
		}
		return &ParticipantIdentity{Kind: IdentityAnonymous, ID: participantID}, nil
	}

	return nil, errInvalidCredential()
}

func (s *IdentityService) resolveInvite(evaluation *model.Evaluation, rawToken string) (*ParticipantIdentity, error) {
	invite, err := s.Store.GetInviteByTokenHash(util.HashToken(rawToken, s.tokenSecret))
	if err != nil {
		return nil, err
	}
	if invite == nil || invite.EvaluationID != evaluation.ID {
		return nil, errInvalidCredential()
	}
	return &ParticipantIdentity{Kind: IdentityInvite, ID: invite.ID}, nil
}

func (s *IdentityService) resolveRoster(evaluation *model.Evaluation, code string) (*ParticipantIdentity, error) {
	entry, err := s.Store.GetRosterEntryByCode(evaluation.ID, code)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, errInvalidCredential()
	}
	return &ParticipantIdentity{Kind: IdentityRoster, ID: entry.ID}, nil
}
