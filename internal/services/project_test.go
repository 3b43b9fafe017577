package services

import (
	"net/http"
	"testing"

	"github.com/rsolano/tracklio/backend/internal/models"
)

func TestProjectCreate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProjectService(db)
	tenant := createTestTenant(t, db, "Acme", "acme")
	member := createTestUser(t, db, tenant.ID, "m@acme.io", models.RoleMember)

	project, err := svc.Create(principalFor(member), &CreateProjectRequest{
		Name:        "Launch",
		Description: "Ship the new product",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if project.Status != models.ProjectStatusActive {
		t.Errorf("status = %q, expected active", project.Status)
	}
	if project.TenantID != tenant.ID {
		t.Errorf("tenant = %q, expected %q", project.TenantID, tenant.ID)
	}
	if project.CreatedBy != member.ID {
		t.Errorf("created_by = %q, expected %q", project.CreatedBy, member.ID)
	}
}

func TestProjectCreate_EmptyName(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProjectService(db)
	tenant := createTestTenant(t, db, "Acme", "acme")
	member := createTestUser(t, db, tenant.ID, "m@acme.io", models.RoleMember)

	_, err := svc.Create(principalFor(member), &CreateProjectRequest{Name: "   "})
	wantStatus(t, err, http.StatusBadRequest)
}

func TestProjectList_ScopedWithCounts(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProjectService(db)

	acme := createTestTenant(t, db, "Acme", "acme")
	globex := createTestTenant(t, db, "Globex", "globex")
	member := createTestUser(t, db, acme.ID, "m@acme.io", models.RoleMember)

	project := &models.Project{TenantID: acme.ID, Name: "Launch", Status: models.ProjectStatusActive}
	db.Create(project)
	db.Create(&models.Project{TenantID: globex.ID, Name: "Secret", Status: models.ProjectStatusActive})

	db.Create(&models.Task{ProjectID: project.ID, TenantID: acme.ID, Title: "a", Status: models.TaskStatusTodo, Priority: models.TaskPriorityLow})
	db.Create(&models.Task{ProjectID: project.ID, TenantID: acme.ID, Title: "b", Status: models.TaskStatusCompleted, Priority: models.TaskPriorityLow})
	db.Create(&models.Task{ProjectID: project.ID, TenantID: acme.ID, Title: "c", Status: models.TaskStatusCompleted, Priority: models.TaskPriorityLow})

	resp, err := svc.List(principalFor(member), &ProjectListRequest{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if resp.Total != 1 {
		t.Fatalf("Total = %d, expected 1 (other tenant's project must not appear)", resp.Total)
	}

	got := resp.Items[0]
	if got.Name != "Launch" {
		t.Errorf("Name = %q, expected Launch", got.Name)
	}
	if got.TaskCount != 3 {
		t.Errorf("TaskCount = %d, expected 3", got.TaskCount)
	}
	if got.CompletedTaskCount != 2 {
		t.Errorf("CompletedTaskCount = %d, expected 2", got.CompletedTaskCount)
	}
}

func TestProjectList_SearchAndStatusFilter(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProjectService(db)
	tenant := createTestTenant(t, db, "Acme", "acme")
	member := createTestUser(t, db, tenant.ID, "m@acme.io", models.RoleMember)

	db.Create(&models.Project{TenantID: tenant.ID, Name: "Website Redesign", Description: "new landing page", Status: models.ProjectStatusActive})
	db.Create(&models.Project{TenantID: tenant.ID, Name: "Mobile App", Description: "iOS and Android", Status: models.ProjectStatusArchived})

	resp, err := svc.List(principalFor(member), &ProjectListRequest{Search: "WEBSITE"})
	if err != nil {
		t.Fatalf("List(search) error = %v", err)
	}
	if resp.Total != 1 || resp.Items[0].Name != "Website Redesign" {
		t.Errorf("case-insensitive name search failed: total=%d", resp.Total)
	}

	// Search also matches descriptions.
	resp, _ = svc.List(principalFor(member), &ProjectListRequest{Search: "android"})
	if resp.Total != 1 || resp.Items[0].Name != "Mobile App" {
		t.Errorf("description search failed: total=%d", resp.Total)
	}

	resp, _ = svc.List(principalFor(member), &ProjectListRequest{Status: models.ProjectStatusArchived})
	if resp.Total != 1 || resp.Items[0].Name != "Mobile App" {
		t.Errorf("status filter failed: total=%d", resp.Total)
	}

	_, err = svc.List(principalFor(member), &ProjectListRequest{Status: "bogus"})
	wantStatus(t, err, http.StatusBadRequest)
}

func TestProjectList_StoreFailureIsInternal(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProjectService(db)
	tenant := createTestTenant(t, db, "Acme", "acme")
	member := createTestUser(t, db, tenant.ID, "m@acme.io", models.RoleMember)

	// A failing count must surface as an internal error, not an empty page.
	if err := db.Exec("DROP TABLE projects").Error; err != nil {
		t.Fatalf("failed to drop table: %v", err)
	}

	_, err := svc.List(principalFor(member), &ProjectListRequest{})
	wantStatus(t, err, http.StatusInternalServerError)
}

func TestProjectGetByID_CrossTenantIsNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProjectService(db)

	acme := createTestTenant(t, db, "Acme", "acme")
	globex := createTestTenant(t, db, "Globex", "globex")
	secret := &models.Project{TenantID: globex.ID, Name: "Secret", Status: models.ProjectStatusActive}
	db.Create(secret)

	// Regardless of role, addressing another tenant's project by id
	// yields NotFound.
	for _, role := range []string{models.RoleMember, models.RoleTenantAdmin, models.RoleSuperAdmin} {
		actor := createTestUser(t, db, acme.ID, role+"@acme.io", role)
		_, err := svc.GetByID(principalFor(actor), secret.ID)
		wantStatus(t, err, http.StatusNotFound)
	}
}

func TestProjectUpdate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProjectService(db)
	tenant := createTestTenant(t, db, "Acme", "acme")
	member := createTestUser(t, db, tenant.ID, "m@acme.io", models.RoleMember)

	project := &models.Project{TenantID: tenant.ID, Name: "Launch", Description: "old", Status: models.ProjectStatusActive}
	db.Create(project)

	status := models.ProjectStatusCompleted
	desc := "done and dusted"
	if _, err := svc.Update(principalFor(member), project.ID, &UpdateProjectRequest{Status: &status, Description: &desc}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	var reloaded models.Project
	db.First(&reloaded, "id = ?", project.ID)
	if reloaded.Status != models.ProjectStatusCompleted {
		t.Errorf("status = %q, expected completed", reloaded.Status)
	}
	if reloaded.Description != desc {
		t.Errorf("description = %q, expected %q", reloaded.Description, desc)
	}
	if reloaded.Name != "Launch" {
		t.Error("fields absent from the patch must not change")
	}

	bad := "bogus"
	_, err := svc.Update(principalFor(member), project.ID, &UpdateProjectRequest{Status: &bad})
	wantStatus(t, err, http.StatusBadRequest)
}

func TestProjectDelete_CascadesExactly(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProjectService(db)
	tenant := createTestTenant(t, db, "Acme", "acme")
	member := createTestUser(t, db, tenant.ID, "m@acme.io", models.RoleMember)

	doomed := &models.Project{TenantID: tenant.ID, Name: "Doomed", Status: models.ProjectStatusActive}
	survivor := &models.Project{TenantID: tenant.ID, Name: "Survivor", Status: models.ProjectStatusActive}
	db.Create(doomed)
	db.Create(survivor)

	db.Create(&models.Task{ProjectID: doomed.ID, TenantID: tenant.ID, Title: "t1", Status: models.TaskStatusTodo, Priority: models.TaskPriorityLow})
	db.Create(&models.Task{ProjectID: doomed.ID, TenantID: tenant.ID, Title: "t2", Status: models.TaskStatusTodo, Priority: models.TaskPriorityLow})
	db.Create(&models.Task{ProjectID: survivor.ID, TenantID: tenant.ID, Title: "keep", Status: models.TaskStatusTodo, Priority: models.TaskPriorityLow})

	if err := svc.Delete(principalFor(member), doomed.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var doomedTasks, survivorTasks int64
	db.Model(&models.Task{}).Where("project_id = ?", doomed.ID).Count(&doomedTasks)
	db.Model(&models.Task{}).Where("project_id = ?", survivor.ID).Count(&survivorTasks)

	if doomedTasks != 0 {
		t.Errorf("deleted project still has %d tasks", doomedTasks)
	}
	if survivorTasks != 1 {
		t.Errorf("unrelated project lost tasks: %d remain, expected 1", survivorTasks)
	}
}

func TestProjectDelete_AtomicUnderFailure(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProjectService(db)
	tenant := createTestTenant(t, db, "Acme", "acme")
	member := createTestUser(t, db, tenant.ID, "m@acme.io", models.RoleMember)

	project := &models.Project{TenantID: tenant.ID, Name: "Launch", Status: models.ProjectStatusActive}
	db.Create(project)
	db.Create(&models.Task{ProjectID: project.ID, TenantID: tenant.ID, Title: "t1", Status: models.TaskStatusTodo, Priority: models.TaskPriorityLow})
	db.Create(&models.Task{ProjectID: project.ID, TenantID: tenant.ID, Title: "t2", Status: models.TaskStatusTodo, Priority: models.TaskPriorityLow})

	// Simulate a store failure after the task deletion step: the project
	// row refuses to die, so the whole transaction must roll back.
	if err := db.Exec(`CREATE TRIGGER fail_project_delete BEFORE DELETE ON projects
		BEGIN SELECT RAISE(ABORT, 'simulated store failure'); END`).Error; err != nil {
		t.Fatalf("failed to install trigger: %v", err)
	}

	if err := svc.Delete(principalFor(member), project.ID); err == nil {
		t.Fatal("Delete() should fail when the store fails mid-cascade")
	}

	var taskCount, projectCount int64
	db.Model(&models.Task{}).Where("project_id = ?", project.ID).Count(&taskCount)
	db.Model(&models.Project{}).Where("id = ?", project.ID).Count(&projectCount)

	if taskCount != 2 {
		t.Errorf("partial cascade observed: %d tasks remain, expected 2", taskCount)
	}
	if projectCount != 1 {
		t.Errorf("project count = %d, expected 1", projectCount)
	}
}

func TestProjectDelete_CrossTenantIsNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProjectService(db)

	acme := createTestTenant(t, db, "Acme", "acme")
	globex := createTestTenant(t, db, "Globex", "globex")
	member := createTestUser(t, db, acme.ID, "m@acme.io", models.RoleMember)

	secret := &models.Project{TenantID: globex.ID, Name: "Secret", Status: models.ProjectStatusActive}
	db.Create(secret)

	err := svc.Delete(principalFor(member), secret.ID)
	wantStatus(t, err, http.StatusNotFound)

	var count int64
	db.Model(&models.Project{}).Where("id = ?", secret.ID).Count(&count)
	if count != 1 {
		t.Error("cross-tenant delete must not remove anything")
	}
}
