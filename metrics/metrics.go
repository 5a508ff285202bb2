package metrics

type Counter interface {
	Inc()
	Add(delta float64)
}

type CounterVec interface {
	WithLabelValues(labelValues ...string) Counter
}

type Factory interface {
	CreateCounter(name string, description string) (Counter, error)

	CreateCounterVec(name string, description string, labelNames ...string) (CounterVec, error)

	Start() error

	Stop() error
}

// NewNoopFactory returns a Factory whose counters discard every update. It is used when metrics are disabled.
func NewNoopFactory() Factory {
	return noopFactory{}
}

type noopFactory struct{}

type noopCounter struct{}

func (noopFactory) CreateCounter(string, string) (Counter, error) {
	return noopCounter{}, nil
}

func (noopFactory) CreateCounterVec(string, string, ...string) (CounterVec, error) {
	return noopCounter{}, nil
}

func (noopFactory) Start() error {
	return nil
}

func (noopFactory) Stop() error {
	return nil
}

func (noopCounter) Inc() {}

func (noopCounter) Add(float64) {}

func (n noopCounter) WithLabelValues(...string) Counter {
	return n
}
