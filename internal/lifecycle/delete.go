package lifecycle

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

// Delete steps, in the order they run.
const (
	StepDeliverables         = "deliverables"
	StepEvents               = "events"
	StepJoinRows             = "join_rows"
	StepRevertChangeRequests = "change_requests"
	StepPackage              = "package"
	StepEventsCollection     = "events_collection"
)

// DeleteSteps lists the delete steps in execution order.
var DeleteSteps = []string{
	StepDeliverables,
	StepEvents,
	StepJoinRows,
	StepRevertChangeRequests,
	StepPackage,
	StepEventsCollection,
}

// DeleteReport counts what each completed step removed.
type DeleteReport struct {
	Deliverables           int
	Events                 int
	JoinRows               int
	ChangeRequestsReverted int
	Package                bool
	EventsCollection       bool

	// Completed lists the steps that finished, in order.
	Completed []string
}

// StepError reports the delete step that failed. Earlier steps have
// already been applied and are not undone.
type StepError struct {
	Step    string
	Package string
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("deleting %s: step %s: %v", e.Package, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Delete removes pkg and everything it owns, one step at a time:
// deliverables, events, owner join rows, change request links (only when
// revertChangeRequests is set, resetting each change request to
// "complete"), the package row, then the events collection row.
//
// A failing step stops the cascade and is returned as a *StepError along
// with the report of the steps that did complete. Without
// revertChangeRequests the change request links are kept so the requests
// still name the package they shipped in.
func (m *Manager) Delete(pkg *types.Package, revertChangeRequests bool) (*DeleteReport, error) {
	report := &DeleteReport{}
	logger := m.log.WithField("package", pkg.String())

	steps := []struct {
		name string
		run  func() (int, error)
	}{
		{StepDeliverables, func() (int, error) { return m.deleteDeliverables(pkg) }},
		{StepEvents, func() (int, error) { return m.events.Purge(pkg.EventsID) }},
		{StepJoinRows, func() (int, error) { return m.deleteJoinRows(pkg) }},
		{StepRevertChangeRequests, func() (int, error) {
			if !revertChangeRequests {
				return 0, nil
			}
			return m.revertChangeRequests(pkg)
		}},
		{StepPackage, func() (int, error) { return 1, m.packages.Delete(pkg.PackageID) }},
		{StepEventsCollection, func() (int, error) { return 1, m.events.DropCollection(pkg.EventsID) }},
	}

	for _, step := range steps {
		n, err := step.run()
		if err != nil {
			logger.WithFields(logrus.Fields{
				"step":  step.name,
				"error": err,
			}).Error("delete step failed")
			return report, &StepError{Step: step.name, Package: pkg.String(), Err: err}
		}
		report.record(step.name, n)
		logger.WithFields(logrus.Fields{
			"step":  step.name,
			"count": n,
		}).Info("delete step complete")
	}
	return report, nil
}

func (r *DeleteReport) record(step string, n int) {
	switch step {
	case StepDeliverables:
		r.Deliverables = n
	case StepEvents:
		r.Events = n
	case StepJoinRows:
		r.JoinRows = n
	case StepRevertChangeRequests:
		r.ChangeRequestsReverted = n
	case StepPackage:
		r.Package = true
	case StepEventsCollection:
		r.EventsCollection = true
	}
	r.Completed = append(r.Completed, step)
}

func (m *Manager) deleteDeliverables(pkg *types.Package) (int, error) {
	ds, err := m.Deliverables(pkg)
	if err != nil {
		return 0, err
	}
	for i, d := range ds {
		if err := m.deliverables.Delete(d.DeliverableID); err != nil {
			return i, fmt.Errorf("deleting deliverable %s: %w", d.Path, err)
		}
	}
	return len(ds), nil
}

// deleteJoinRows removes the links from pkg's owning tool-kit package and
// component versions.
func (m *Manager) deleteJoinRows(pkg *types.Package) (int, error) {
	n := 0
	for _, lt := range []string{types.LinkTypeToolKitPackage, types.LinkTypeComponentVersion} {
		links, err := m.fetchLinks(types.Filter{"link_type": lt, "to_id": pkg.PackageID})
		if err != nil {
			return n, err
		}
		for _, l := range links {
			if err := m.links.Delete(l.LinkID); err != nil {
				return n, fmt.Errorf("deleting %s link %s: %w", lt, l.LinkID, err)
			}
			n++
		}
	}
	return n, nil
}

// revertChangeRequests detaches every change request from pkg and resets
// it to "complete".
func (m *Manager) revertChangeRequests(pkg *types.Package) (int, error) {
	links, err := m.fetchLinks(types.Filter{
		"link_type": types.LinkTypePackageChangeRequest,
		"from_id":   pkg.PackageID,
	})
	if err != nil {
		return 0, err
	}

	n := 0
	for _, l := range links {
		if err := m.links.Delete(l.LinkID); err != nil {
			return n, fmt.Errorf("detaching change request %s: %w", l.ToID, err)
		}
		row, found, err := types.Lookup(m.changeRequests, l.ToID)
		if err != nil {
			return n, fmt.Errorf("getting change request %s: %w", l.ToID, err)
		}
		if !found {
			// The link was dangling; detaching it is all there is to do.
			n++
			continue
		}
		cr, ok := row.(*types.ChangeRequest)
		if !ok {
			return n, fmt.Errorf("%w: change requests table returned %T", types.ErrInvalidData, row)
		}
		if err := m.setChangeRequestStatus(cr, types.ChangeRequestComplete, "reverted from "+pkg.String()); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
