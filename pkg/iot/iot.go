package iot

import (
	"errors"
	"time"

	"liyu1981.xyz/soil-monitor-service/pkg/common"
	"liyu1981.xyz/soil-monitor-service/pkg/db"
	"liyu1981.xyz/soil-monitor-service/pkg/models"
)

var (
	ErrNodeNotFound        = errors.New("node not found")
	ErrCropProfileNotFound = errors.New("crop profile not found")
)

const DefaultNodeTimeout = 10 * time.Minute

type IReading interface {
	IngestReading(input *ReadingInput) (*IngestResult, error)
	GetNodeReadings(nodeID string, limit int) ([]models.Reading, error)
}

type IAlert interface {
	Evaluate(nodeID string, reading *models.SensorValues, thresholds models.ThresholdSet) ([]Transition, error)
	GetNodeAlerts(nodeID string, status models.AlertStatus) ([]models.Alert, error)
}

type IThreshold interface {
	Resolve(cropIdentifier string) (models.ThresholdSet, models.Provenance)
	ResolveForNode(nodeID string) (models.ThresholdSet, models.Provenance)
}

type IProfile interface {
	SaveCropProfile(crop string, thresholds models.Thresholds, documentName, description string) (*models.CropProfile, error)
	UpdateThresholds(crop string, thresholds models.Thresholds) (*models.CropProfile, error)
	GetCropProfile(crop string) (*models.CropProfile, error)
	ListCropProfiles() ([]models.CropProfile, error)
	DeleteCropProfile(crop string) error
	CacheThresholds(crop string, thresholds models.Thresholds, source string) error
	AssignCrop(nodeID, crop string) (*CropAssignment, error)
	GetNodeCrop(nodeID string) (string, error)
}

type IConnectivity interface {
	CheckConnectivity(now time.Time) (*ConnectivityReport, error)
}

type IOT struct {
	Db           db.DB
	Reading      IReading
	Alert        IAlert
	Threshold    IThreshold
	Profile      IProfile
	Connectivity IConnectivity

	// NodeTimeout is how long a node may stay silent before the sweep marks it
	// offline. Zero means DefaultNodeTimeout.
	NodeTimeout time.Duration

	nodeLocks common.KeyedMutex
}

type ServiceOpts struct {
	Reading      IReading
	Alert        IAlert
	Threshold    IThreshold
	Profile      IProfile
	Connectivity IConnectivity
}

func (i *IOT) WithServices(opts ServiceOpts) *IOT {
	if opts.Reading != nil {
		i.Reading = opts.Reading
	}
	if opts.Alert != nil {
		i.Alert = opts.Alert
	}
	if opts.Threshold != nil {
		i.Threshold = opts.Threshold
	}
	if opts.Profile != nil {
		i.Profile = opts.Profile
	}
	if opts.Connectivity != nil {
		i.Connectivity = opts.Connectivity
	}
	return i
}

// WithDefaultServices wires every service to its database-backed implementation.
func (i *IOT) WithDefaultServices() *IOT {
	return i.WithServices(ServiceOpts{
		Reading:      i.GetIReading(),
		Alert:        i.GetIAlert(),
		Threshold:    i.GetIThreshold(),
		Profile:      i.GetIProfile(),
		Connectivity: i.GetIConnectivity(),
	})
}

// lockNode serializes ingestion, crop assignment and connectivity transitions
// for one node.
func (i *IOT) lockNode(nodeID string) func() {
	return i.nodeLocks.Lock(nodeID)
}

func (i *IOT) nodeTimeout() time.Duration {
	if i.NodeTimeout <= 0 {
		return DefaultNodeTimeout
	}
	return i.NodeTimeout
}
