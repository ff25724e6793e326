package shared

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot provides common fields for aggregate roots.
// Version is the optimistic-lock token: a persisted aggregate whose Version
// is v was read at v, and a versioned save writes v+1 only if the row is
// still at v.
type BaseAggregateRoot struct {
	BaseEntity
	Version      int
	domainEvents []DomainEvent
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent adds a domain event to be published
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:   NewBaseEntity(),
		Version:      1,
		domainEvents: make([]DomainEvent, 0),
	}
}

// UserAggregateRoot is an aggregate root that lives in a single user's namespace.
// Every read and write of such an aggregate is filtered by UserID.
type UserAggregateRoot struct {
	BaseAggregateRoot
	UserID string
}

// NewUserAggregateRoot creates a new user-namespaced aggregate root
func NewUserAggregateRoot(userID string) UserAggregateRoot {
	return UserAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		UserID:            userID,
	}
}

// GetUserID returns the owning user namespace
func (u *UserAggregateRoot) GetUserID() string {
	return u.UserID
}
