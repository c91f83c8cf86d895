// Package jobsproto defines the job descriptor exchanged between a worker
// and the jobs coordinator: a tagged-union sum type over the kinds of work
// the coordinator tracks (spec.md §4.5, REDESIGN FLAGS "polymorphic jobs").
package jobsproto

import "fmt"

// Kind tags which payload variant a Job carries.
type Kind string

const (
	KindPackaging Kind = "Packaging"
	KindResource  Kind = "Resource"
)

// Packaging identifies an in-flight version upload pipeline run.
type Packaging struct {
	PackageID      string `json:"packageId"`
	PackageVersion string `json:"packageVersion"`
}

// Resource identifies an in-flight standalone resource job (e.g. an
// avatar/icon transcode) outside the package-ingest pipeline.
type Resource struct {
	ResourceID string `json:"resourceId"`
}

// Job is the (jobType, jobData) pair the coordinator keys jobs by.
// Job identity is (Kind, the payload's value) — re-registering the same
// pair is an idempotent no-op (spec.md §4.5).
type Job struct {
	Kind      Kind       `json:"kind"`
	Packaging *Packaging `json:"packaging,omitempty"`
	Resource  *Resource  `json:"resource,omitempty"`
}

// NewPackagingJob builds a Job wrapping a Packaging payload.
func NewPackagingJob(packageID, packageVersion string) Job {
	return Job{Kind: KindPackaging, Packaging: &Packaging{PackageID: packageID, PackageVersion: packageVersion}}
}

// NewResourceJob builds a Job wrapping a Resource payload.
func NewResourceJob(resourceID string) Job {
	return Job{Kind: KindResource, Resource: &Resource{ResourceID: resourceID}}
}

// Key returns a string uniquely identifying the job for coordinator-side
// bookkeeping (deduplication, the startTime map).
func (j Job) Key() (string, error) {
	switch j.Kind {
	case KindPackaging:
		if j.Packaging == nil {
			return "", fmt.Errorf("packaging job missing payload")
		}
		return fmt.Sprintf("packaging:%s:%s", j.Packaging.PackageID, j.Packaging.PackageVersion), nil
	case KindResource:
		if j.Resource == nil {
			return "", fmt.Errorf("resource job missing payload")
		}
		return fmt.Sprintf("resource:%s", j.Resource.ResourceID), nil
	default:
		return "", fmt.Errorf("unknown job kind %q", j.Kind)
	}
}
