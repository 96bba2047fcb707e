package ebbinghaus

import "time"

// TimezoneResolver maps a timezone name to a usable location. An
// unresolvable name must yield a configured fallback location rather than
// an error: reminder scheduling never hard-fails over a bad timezone
// string. The platform/timezone package provides the standard
// implementation.
type TimezoneResolver interface {
	Resolve(name string) *time.Location
}

// Service exposes the pure stage calculators with timezone names resolved
// at the boundary. Both methods are stateless and safe for concurrent use.
type Service interface {
	// NextRepetition computes the due instant and stage that follow a
	// successful repetition at currentStage.
	NextRepetition(
		createdAt time.Time,
		currentStage int,
		timezone string,
		lastSuccessAt *time.Time,
	) (time.Time, int)

	// FailedRepetition computes the rollback due instant and stage after a
	// reported failure at currentStage.
	FailedRepetition(failedAt time.Time, currentStage int, timezone string) (time.Time, int)
}

type defaultService struct {
	resolver TimezoneResolver
}

// NewService creates the standard Service backed by the given timezone
// resolver.
func NewService(resolver TimezoneResolver) Service {
	if resolver == nil {
		panic("resolver cannot be nil")
	}

	return &defaultService{resolver: resolver}
}

func (s *defaultService) NextRepetition(
	createdAt time.Time,
	currentStage int,
	timezone string,
	lastSuccessAt *time.Time,
) (time.Time, int) {
	return ComputeNext(createdAt, currentStage, s.resolver.Resolve(timezone), lastSuccessAt)
}

func (s *defaultService) FailedRepetition(
	failedAt time.Time,
	currentStage int,
	timezone string,
) (time.Time, int) {
	return ComputeFailure(failedAt, currentStage, s.resolver.Resolve(timezone))
}
