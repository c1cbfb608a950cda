package lifecycle

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

// AssociateChangeRequests links each named change request to pkg and marks
// it packaged. Unknown names are created. Links that already exist are
// left alone, so repeating a call adds nothing. It returns the number of
// links added.
func (m *Manager) AssociateChangeRequests(pkg *types.Package, names []string) (int, error) {
	added := 0
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		cr, err := m.resolveChangeRequest(name)
		if err != nil {
			return added, err
		}

		_, linked, err := types.FindOne(m.links, types.Filter{
			"link_type": types.LinkTypePackageChangeRequest,
			"from_id":   pkg.PackageID,
			"to_id":     cr.ChangeRequestID,
		})
		if err != nil {
			return added, fmt.Errorf("checking link %s -> %s: %w", pkg, name, err)
		}
		if !linked {
			if err := m.link(types.LinkTypePackageChangeRequest, pkg.PackageID, cr.ChangeRequestID); err != nil {
				return added, err
			}
			added++
		}

		if err := m.setChangeRequestStatus(cr, types.ChangeRequestPackaged, "packaged in "+pkg.String()); err != nil {
			return added, err
		}
	}

	if added > 0 {
		comment := fmt.Sprintf("%d change requests linked", added)
		if _, err := m.events.Record(pkg.EventsID, types.PackageStateChangesLinked, comment, m.actor); err != nil {
			return added, fmt.Errorf("recording change state of %s: %w", pkg, err)
		}
	}

	m.log.WithFields(logrus.Fields{
		"package": pkg.String(),
		"count":   added,
	}).Info("change requests associated")
	return added, nil
}

// resolveChangeRequest finds a change request by name, creating it with
// its own events collection when absent.
func (m *Manager) resolveChangeRequest(name string) (*types.ChangeRequest, error) {
	row, found, err := types.FindOne(m.changeRequests, types.Filter{"name": name})
	if err != nil {
		return nil, fmt.Errorf("looking up change request %s: %w", name, err)
	}
	if found {
		cr, ok := row.(*types.ChangeRequest)
		if !ok {
			return nil, fmt.Errorf("%w: change requests table returned %T", types.ErrInvalidData, row)
		}
		return cr, nil
	}

	eventsID, err := m.events.NewCollection(types.TableChangeRequests)
	if err != nil {
		return nil, err
	}
	cr := &types.ChangeRequest{Name: name, Status: types.ChangeRequestComplete, EventsID: eventsID}
	if _, err := m.changeRequests.Set("", cr); err != nil {
		return nil, fmt.Errorf("creating change request %s: %w", name, err)
	}
	if _, err := m.events.Record(eventsID, types.ChangeRequestComplete, "registered", m.actor); err != nil {
		return nil, fmt.Errorf("recording state of change request %s: %w", name, err)
	}
	return cr, nil
}

// setChangeRequestStatus updates cr's status and records the transition on
// its own events collection. A change request already in status is left
// untouched.
func (m *Manager) setChangeRequestStatus(cr *types.ChangeRequest, status, comment string) error {
	if cr.Status == status {
		return nil
	}
	cr.Status = status
	if _, err := m.changeRequests.Set(cr.ChangeRequestID, cr); err != nil {
		return fmt.Errorf("setting change request %s to %s: %w", cr.Name, status, err)
	}
	if cr.EventsID == "" {
		return nil
	}
	if _, err := m.events.Record(cr.EventsID, status, comment, m.actor); err != nil {
		return fmt.Errorf("recording %s on change request %s: %w", status, cr.Name, err)
	}
	return nil
}
