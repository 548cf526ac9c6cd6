package assistant

import (
	"time"

	"github.com/aide-dev/aide/pkg/interfaces"
)

// HistoryLimit is the number of most recent messages sent to the model as
// conversation history
const HistoryLimit = 20

// UseCase provides the assistant's question answering flow
type UseCase struct {
	repo         interfaces.Repository
	gateway      interfaces.Gateway
	extraContext string
	now          func() time.Time
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithExtraContext sets operator-supplied context added to every prompt
func WithExtraContext(extra string) Option {
	return func(uc *UseCase) {
		uc.extraContext = extra
	}
}

// WithClock replaces time.Now for the date and time given to the model
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

// New creates a new assistant UseCase instance
func New(
	repo interfaces.Repository,
	gateway interfaces.Gateway,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		repo:    repo,
		gateway: gateway,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
