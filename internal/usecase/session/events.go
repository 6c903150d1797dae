package session

import "github.com/jgardner/reviewflow/internal/domain"

// ProgressFunc receives the full current progress state on every change.
type ProgressFunc func(domain.ProgressEvent)

// LogFunc receives session log lines.
type LogFunc func(domain.LogEvent)

// SubscribeProgress registers a progress listener. Listeners are invoked
// synchronously, in registration order, before the triggering operation
// proceeds. Listeners must not mutate orchestrator state.
func (o *Orchestrator) SubscribeProgress(fn ProgressFunc) {
	o.progressSubs = append(o.progressSubs, fn)
}

// SubscribeLog registers a log listener with the same delivery guarantees
// as SubscribeProgress.
func (o *Orchestrator) SubscribeLog(fn LogFunc) {
	o.logSubs = append(o.logSubs, fn)
}

func (o *Orchestrator) emitProgress(event domain.ProgressEvent) {
	for _, fn := range o.progressSubs {
		fn(event)
	}
}

func (o *Orchestrator) emitLog(level, message, detail string) {
	event := domain.LogEvent{Level: level, Message: message, Detail: detail}
	for _, fn := range o.logSubs {
		fn(event)
	}
}
