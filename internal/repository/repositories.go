package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories bundles every repository the services depend on.
type Repositories struct {
	Incidents     IncidentRepository
	Requirements  RequirementRepository
	Users         UserRepository
	Departments   DepartmentRepository
	Roles         RoleRepository
	Activity      ActivityRepository
	Notifications NotificationRepository
	Registrations RegistrationRepository
	Attachments   AttachmentRepository
}

// NewPostgresRepositories wires Postgres-backed implementations over pool.
func NewPostgresRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Incidents:     NewIncidentRepository(pool),
		Requirements:  NewRequirementRepository(pool),
		Users:         NewUserRepository(pool),
		Departments:   NewDepartmentRepository(pool),
		Roles:         NewRoleRepository(pool),
		Activity:      NewActivityRepository(pool),
		Notifications: NewNotificationRepository(pool),
		Registrations: NewRegistrationRepository(pool),
		Attachments:   NewAttachmentRepository(pool),
	}
}
