package bootstrap

import (
	"go.uber.org/zap"

	"segrec/internal/audio"
	"segrec/internal/config"
	"segrec/internal/logging"
	"segrec/internal/ports"
	"segrec/internal/storage"
	"segrec/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.SessionController
	Config     config.Config
	Logger     *zap.SugaredLogger
	// Close flushes and releases the logger.
	Close func()
}

// Build wires all backend dependencies for the current runtime.
func Build(eventSink ports.EventSink) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	logger, closeLogger, err := logging.New(cfg.Log)
	if err != nil {
		return Services{}, err
	}

	audioCfg := audio.Config{
		InputFormat: cfg.Audio.InputFormat,
		InputDevice: cfg.Audio.InputDevice,
		SampleRate:  cfg.Audio.SampleRate,
		Channels:    cfg.Audio.Channels,
		StagingDir:  cfg.StagingDir,
	}

	controller := usecase.NewSessionController(
		audio.NewProbePermission(cfg.Audio.RecorderCommand, audioCfg, logger.Named("permission")),
		audio.NewFFMPEGRecorder(cfg.Audio.RecorderCommand, audioCfg, logger.Named("ffmpeg")),
		storage.NewLocalFileStore(logger.Named("storage")),
		audio.NewFFPlayDevice(cfg.Audio.PlayerCommand, logger.Named("ffplay")),
		eventSink,
		logger.Named("session"),
		usecase.Config{
			Recorder: usecase.RecorderConfig{
				DocumentsDir:     cfg.DocumentsDir,
				TickInterval:     cfg.Session.TickInterval,
				RotationInterval: cfg.Session.RotationInterval,
				TicksPerSegment:  cfg.Session.TicksPerSegment,
				SettleDelay:      cfg.Session.SettleDelay,
			},
		},
	)

	logger.Infow("services ready",
		"documentsDir", cfg.DocumentsDir,
		"configFile", cfg.FilePath,
		"input", cfg.Audio.InputFormat+":"+cfg.Audio.InputDevice,
	)

	return Services{Controller: controller, Config: cfg, Logger: logger, Close: closeLogger}, nil
}
