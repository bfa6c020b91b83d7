package buildpipeline

import "go.uber.org/zap"

// LogSink writes events to a zap logger at debug level, errors at warn.
type LogSink struct {
	Log *zap.Logger
}

func (s LogSink) OnEvent(evt Event) {
	log := s.Log
	if log == nil {
		log = Logger()
	}
	fields := []zap.Field{
		zap.String("stage", string(evt.Stage)),
		zap.String("status", string(evt.Status)),
	}
	if evt.Package != "" {
		fields = append(fields, zap.String("package", evt.Package))
	}
	if evt.Elapsed > 0 {
		fields = append(fields, zap.Duration("elapsed", evt.Elapsed))
	}
	if evt.Err != nil {
		log.Warn("pipeline", append(fields, zap.Error(evt.Err))...)
		return
	}
	log.Debug("pipeline", fields...)
}

// multiSink fans events out in order.
type multiSink []ProgressSink

func (m multiSink) OnEvent(evt Event) {
	for _, s := range m {
		if s != nil {
			s.OnEvent(evt)
		}
	}
}
