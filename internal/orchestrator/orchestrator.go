// Package orchestrator ties the device registry, task queue, inference
// pipeline, persistence and event broadcast together. It is the sole owner
// of per-device concurrency control: every successful trigger is matched by
// exactly one release, on success and on every failure path.
package orchestrator

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"time"

	"visionserver/internal/broadcast"
	"visionserver/internal/config"
	"visionserver/internal/device"
	"visionserver/internal/inference"
	"visionserver/internal/logger"
	"visionserver/internal/model"
	"visionserver/internal/postprocess"
	"visionserver/internal/queue"
	"visionserver/internal/repository"
	"visionserver/internal/settings"
)

// ErrInvalidThreshold rejects thresholds outside [0,1].
var ErrInvalidThreshold = errors.New("confidence threshold must be between 0 and 1")

type Orchestrator struct {
	registry  *device.Registry
	queue     *queue.Queue
	hub       *broadcast.Hub
	processor *postprocess.Processor
	model     inference.Model
	results   repository.ResultRepository
	settings  *settings.Store
	logs      *logger.Logger

	primary          string
	workers          int
	captureTimeout   time.Duration
	inferenceTimeout time.Duration

	statusMu sync.Mutex
	status   model.SystemStatus

	wg sync.WaitGroup
}

func New(registry *device.Registry, q *queue.Queue, hub *broadcast.Hub,
	processor *postprocess.Processor, mdl inference.Model,
	results repository.ResultRepository, store *settings.Store,
	logs *logger.Logger, cfg *config.Config) *Orchestrator {

	return &Orchestrator{
		registry:         registry,
		queue:            q,
		hub:              hub,
		processor:        processor,
		model:            mdl,
		results:          results,
		settings:         store,
		logs:             logs,
		primary:          cfg.PrimaryDevice,
		workers:          cfg.PipelineWorkers,
		captureTimeout:   time.Duration(cfg.CaptureTimeout) * time.Second,
		inferenceTimeout: time.Duration(cfg.InferenceTimeout) * time.Second,
	}
}

// PrimaryDevice returns the device targeted by triggers that do not name one.
func (o *Orchestrator) PrimaryDevice() string {
	return o.primary
}

// DefaultThreshold reads the current confidence threshold setting.
func (o *Orchestrator) DefaultThreshold() float64 {
	return o.settings.GetFloat(settings.KeyConfidenceThreshold, 0.5)
}

// Run starts the dispatcher worker pool.
func (o *Orchestrator) Run() {
	for i := 0; i < o.workers; i++ {
		o.wg.Add(1)
		go o.worker(i)
	}
	o.logs.Info("orchestrator", "Started %d pipeline workers", o.workers)
}

// Stop closes the queue and waits for in-flight work to finish.
func (o *Orchestrator) Stop() {
	o.queue.Close()
	o.wg.Wait()
	o.logs.Info("orchestrator", "All pipeline workers stopped")
}

// Trigger validates the threshold, marks the device busy and enqueues one
// capture request. Registry and queue errors surface synchronously; once the
// request is queued, failures are only observable on the event stream.
func (o *Orchestrator) Trigger(deviceID string, threshold float64) (*model.CaptureRequest, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, ErrInvalidThreshold
	}

	req, err := o.registry.Trigger(deviceID, threshold)
	if err != nil {
		return nil, err
	}

	if err := o.queue.Enqueue(req); err != nil {
		o.registry.Release(deviceID)
		o.logs.Warning("orchestrator", "Capture request for %s rejected: %v", deviceID, err)
		return nil, err
	}

	o.logs.Info("orchestrator", "Capture queued for %s (threshold %.2f)", deviceID, threshold)
	return req, nil
}

// Status reports capture and inference backend availability.
func (o *Orchestrator) Status() model.SystemStatus {
	o.statusMu.Lock()
	defer o.statusMu.Unlock()
	return o.status
}

// RefreshStatus re-checks backend availability and publishes a status_update
// event when it changed.
func (o *Orchestrator) RefreshStatus() {
	connected := false
	if camera, ok := o.registry.Camera(o.primary); ok {
		connected = camera.Connected()
	}
	next := model.SystemStatus{
		CameraConnected: connected,
		ModelLoaded:     o.model.Loaded(),
	}

	o.statusMu.Lock()
	changed := next != o.status
	o.status = next
	o.statusMu.Unlock()

	if changed {
		o.hub.Publish(model.Event{Name: model.EventStatusUpdate, Data: next})
	}
}

func (o *Orchestrator) worker(id int) {
	defer o.wg.Done()
	o.logs.Debug("orchestrator", "Pipeline worker %d started", id)

	for {
		req, ok := o.queue.Dequeue()
		if !ok {
			o.logs.Debug("orchestrator", "Pipeline worker %d stopped", id)
			return
		}
		o.process(req)
	}
}

// process runs one request through capture, inference, post-processing,
// persistence and broadcast. Exactly one terminal capture_result event is
// published and the device is released exactly once, whatever happens.
func (o *Orchestrator) process(req *model.CaptureRequest) {
	defer o.registry.Release(req.Device)

	o.hub.Publish(model.Event{Name: model.EventCaptureStart, Data: model.CaptureStartedPayload{
		Device:        req.Device,
		CorrelationID: req.CorrelationID,
	}})

	camera, ok := o.registry.Camera(req.Device)
	if !ok {
		o.fail(req, "capture", device.ErrDeviceUnknown)
		return
	}

	captureCtx, cancelCapture := context.WithTimeout(context.Background(), o.captureTimeout)
	frame, err := camera.Capture(captureCtx)
	cancelCapture()
	if err != nil {
		o.fail(req, "capture", err)
		o.RefreshStatus()
		return
	}
	o.logs.Info("camera", "Frame captured from %s: %s", req.Device, frame.Filename)

	inferCtx, cancelInfer := context.WithTimeout(context.Background(), o.inferenceTimeout)
	outcome, err := o.model.Infer(inferCtx, frame)
	cancelInfer()
	if err != nil {
		o.fail(req, "infer", err)
		return
	}
	outcome.CorrelationID = req.CorrelationID
	o.logs.Info("inference", "Inference on %s finished in %v (confidence %.2f)",
		frame.Filename, outcome.Elapsed, outcome.Confidence)

	result := postprocess.Evaluate(req, outcome)

	if err := o.processor.SaveOriginal(frame); err != nil {
		o.fail(req, "postprocess", err)
		return
	}
	result.ImagePath = frame.Path

	processedPath, err := o.processor.Annotate(frame, result)
	if err != nil {
		o.fail(req, "postprocess", err)
		return
	}
	result.ProcessedPath = processedPath

	// A failed save is logged but the computed result is still broadcast so
	// clients are not left hanging. It is just not durable.
	if _, err := o.results.Insert(&result); err != nil {
		o.logs.Error("storage", "Result for %s computed but not persisted: %v", req.CorrelationID, err)
	} else {
		o.logs.Success("orchestrator", "Capture %s on %s: %s (confidence %.2f, threshold %.2f)",
			req.CorrelationID, req.Device, result.Verdict, result.Confidence, result.Threshold)
	}

	o.hub.Publish(model.Event{Name: model.EventCaptureResult, Data: model.CaptureResultPayload{
		Success:        true,
		Device:         req.Device,
		CorrelationID:  req.CorrelationID,
		OriginalImage:  filepath.Base(result.ImagePath),
		ProcessedImage: filepath.Base(result.ProcessedPath),
		Result:         result.Verdict,
		Confidence:     result.Confidence,
		Threshold:      result.Threshold,
	}})
}

// fail records a terminal pipeline error: one ERROR log entry under the
// inference module and one failed capture_result event. The deferred release
// in process returns the device to idle.
func (o *Orchestrator) fail(req *model.CaptureRequest, stage string, err error) {
	o.logs.Error("inference", "Capture %s on %s failed at %s: %v", req.CorrelationID, req.Device, stage, err)
	o.hub.Publish(model.Event{Name: model.EventCaptureResult, Data: model.CaptureResultPayload{
		Success:       false,
		Device:        req.Device,
		CorrelationID: req.CorrelationID,
		Error:         err.Error(),
	}})
}
