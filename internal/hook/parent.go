package hook

import (
	"fmt"
	"regexp"
)

// Parent scopes a call to an organization or a project. When both are
// set the organization wins; when neither is set the hook's default
// project is used.
type Parent struct {
	OrganizationID string
	ProjectID      string
}

// Organization returns a Parent scoped to an organization.
func Organization(id string) Parent {
	return Parent{OrganizationID: id}
}

// Project returns a Parent scoped to a project.
func Project(id string) Parent {
	return Parent{ProjectID: id}
}

// ResolveParent returns "organizations/{org}" or "projects/{project}".
func ResolveParent(organizationID, projectID, defaultProjectID string) (string, error) {
	switch {
	case organizationID != "":
		return "organizations/" + organizationID, nil
	case projectID != "":
		return "projects/" + projectID, nil
	case defaultProjectID != "":
		return "projects/" + defaultProjectID, nil
	}
	return "", ErrMissingParent
}

func (h *Hook) resolve(op string, p Parent) (string, error) {
	parent, err := ResolveParent(p.OrganizationID, p.ProjectID, h.cfg.ProjectID)
	if err != nil {
		return "", &PreconditionError{Op: op, Err: err}
	}
	return parent, nil
}

// resolveProject ignores organizations; used by project-only APIs.
func (h *Hook) resolveProject(op, projectID string) (string, error) {
	return h.resolve(op, Project(projectID))
}

func resourceName(parent, collection, id string) string {
	return parent + "/" + collection + "/" + id
}

const (
	deidentifyTemplates = "deidentifyTemplates"
	inspectTemplates    = "inspectTemplates"
	storedInfoTypes     = "storedInfoTypes"
	jobTriggers         = "jobTriggers"
	dlpJobs             = "dlpJobs"
)

var jobNamePattern = regexp.MustCompile(`(?i)^projects/(?P<project>[\w-]+)/(?:locations/(?P<location>[\w-]+)/)?dlpJobs/(?P<job>[\w-]+)$`)

// jobIDFromName extracts the job id from a DLP job resource name.
func jobIDFromName(name string) (string, error) {
	m := jobNamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", fmt.Errorf("unable to retrieve DLP job id from %q", name)
	}
	return m[jobNamePattern.SubexpIndex("job")], nil
}
