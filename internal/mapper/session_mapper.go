package mapper

import (
	"swift-ai-market/internal/entity"
	"swift-ai-market/internal/model"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) ToEntity(s *model.Session) *entity.Session {
	if s == nil {
		return nil
	}
	return &entity.Session{
		Id:             s.Id,
		ProductId:      s.ProductId,
		UserIdentifier: s.UserIdentifier,
		Status:         entity.SessionStatus(s.Status),
		StartedAt:      s.StartedAt,
		LastActivityAt: s.LastActivityAt,
		EndedAt:        s.EndedAt,
	}
}

func (m *SessionMapper) ToModel(s *entity.Session) *model.Session {
	if s == nil {
		return nil
	}
	return &model.Session{
		Id:             s.Id,
		ProductId:      s.ProductId,
		UserIdentifier: s.UserIdentifier,
		Status:         string(s.Status),
		StartedAt:      s.StartedAt,
		LastActivityAt: s.LastActivityAt,
		EndedAt:        s.EndedAt,
	}
}

func (m *SessionMapper) ToEntities(sessions []*model.Session) []*entity.Session {
	out := make([]*entity.Session, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, m.ToEntity(s))
	}
	return out
}
