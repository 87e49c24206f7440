package storage

import (
	"github.com/google/uuid"

	"colab/internal/domain"
)

// sessionModelToDomain converts a SessionModel (GORM) to domain.Session
func sessionModelToDomain(m SessionModel) (domain.Session, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return domain.Session{}, err
	}

	return domain.Session{
		Abnormal:   m.Abnormal,
		CreatedAt:  m.CreatedAt,
		FinishedAt: m.FinishedAt,
		ID:         id,
		JarInfo: domain.JarInfo{
			Name:   m.JarName,
			SHA256: m.JarSHA256,
		},
		Patch:        m.Patch,
		PostCmdError: m.PostCmdError,
		Revision:     m.Revision,
		State:        domain.SessionState(m.State),
	}, nil
}

// domainToSessionModel converts a domain.Session to SessionModel (GORM)
func domainToSessionModel(s domain.Session) SessionModel {
	return SessionModel{
		Abnormal:     s.Abnormal,
		CreatedAt:    s.CreatedAt,
		FinishedAt:   s.FinishedAt,
		ID:           s.ID.String(),
		JarName:      s.JarInfo.Name,
		JarSHA256:    s.JarInfo.SHA256,
		Patch:        s.Patch,
		PostCmdError: s.PostCmdError,
		Revision:     s.Revision,
		State:        string(s.State),
	}
}
