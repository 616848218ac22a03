package repository

import "aegis-secure/internal/infrastructure/database"

// Repositories groups every repository over one connection
type Repositories struct {
	Emails       *EmailRepository
	SMS          *SMSRepository
	Profiles     *ProfileRepository
	SenderColors *SenderColorRepository
	Accounts     *MailboxAccountRepository
	History      *HistoryRepository
}

// NewRepositories creates all repositories on db
func NewRepositories(db database.Pool) *Repositories {
	return &Repositories{
		Emails:       NewEmailRepository(db),
		SMS:          NewSMSRepository(db),
		Profiles:     NewProfileRepository(db),
		SenderColors: NewSenderColorRepository(db),
		Accounts:     NewMailboxAccountRepository(db),
		History:      NewHistoryRepository(db),
	}
}
