package log

// Option configures a Filter's allow rules.
type Option func(*rules)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelError
	levelNone
)

// rule says "log at level and above, provided the logger's accumulated
// With() context contains key=value". A matching rule replaces the base
// level; when several rules match, the last one added wins.
type rule struct {
	level level
	key   string
	value interface{}
}

type rules struct {
	base  level // level allowed unconditionally; levelNone means "nothing"
	withs []rule
}

func (r *rules) allows(lv level, ctx []interface{}) bool {
	allowed := r.base
	for _, w := range r.withs {
		if contextHas(ctx, w.key, w.value) {
			allowed = w.level
		}
	}
	return allowed != levelNone && lv >= allowed
}

func contextHas(ctx []interface{}, key string, value interface{}) bool {
	for i := 0; i+1 < len(ctx); i += 2 {
		if ctx[i] == key && ctx[i+1] == value {
			return true
		}
	}
	return false
}

func AllowAll() Option   { return func(r *rules) { r.base = levelDebug } }
func AllowDebug() Option { return func(r *rules) { r.base = levelDebug } }
func AllowInfo() Option  { return func(r *rules) { r.base = levelInfo } }
func AllowError() Option { return func(r *rules) { r.base = levelError } }
func AllowNone() Option  { return func(r *rules) { r.base = levelNone } }

func AllowInfoWith(key string, value interface{}) Option {
	return func(r *rules) { r.withs = append(r.withs, rule{level: levelInfo, key: key, value: value}) }
}

func AllowNoneWith(key string, value interface{}) Option {
	return func(r *rules) { r.withs = append(r.withs, rule{level: levelNone, key: key, value: value}) }
}

// filteredLogger forwards to next only when its accumulated rules permit
// the message's level given the context built up via With().
type filteredLogger struct {
	next  Logger
	rules *rules
	ctx   []interface{}
}

// NewFilter wraps next so that only messages passing opts are forwarded.
// With no options, nothing is logged (the same "closed by default" posture
// the teacher's config-validation options use elsewhere in this stack).
func NewFilter(next Logger, opts ...Option) Logger {
	r := &rules{base: levelNone}
	for _, opt := range opts {
		opt(r)
	}
	return &filteredLogger{next: next, rules: r}
}

func (f *filteredLogger) Debug(msg string, keyvals ...interface{}) {
	if f.rules.allows(levelDebug, f.ctx) {
		f.next.Debug(msg, keyvals...)
	}
}

func (f *filteredLogger) Info(msg string, keyvals ...interface{}) {
	if f.rules.allows(levelInfo, f.ctx) {
		f.next.Info(msg, keyvals...)
	}
}

func (f *filteredLogger) Error(msg string, keyvals ...interface{}) {
	if f.rules.allows(levelError, f.ctx) {
		f.next.Error(msg, keyvals...)
	}
}

func (f *filteredLogger) With(keyvals ...interface{}) Logger {
	ctx := make([]interface{}, 0, len(f.ctx)+len(keyvals))
	ctx = append(ctx, f.ctx...)
	ctx = append(ctx, keyvals...)
	return &filteredLogger{next: f.next.With(keyvals...), rules: f.rules, ctx: ctx}
}
