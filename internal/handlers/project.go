package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/meljneres/sistema-obras/internal/database"
	"github.com/meljneres/sistema-obras/internal/draft"
	"github.com/meljneres/sistema-obras/internal/models"
	"github.com/meljneres/sistema-obras/internal/validate"

	"github.com/gin-gonic/gin"
)

//
// LIST
//

// ListProjects returns the projects of the current user; admins see all.
func ListProjects(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		renderError(c, http.StatusUnauthorized, "login necessário")
		return
	}

	owner := user.ID
	if user.Role == models.RoleAdmin {
		owner = 0
	}
	projects, err := database.ListProjects(database.DB, owner)
	if err != nil {
		renderStoreError(c, err)
		return
	}
	render(c, http.StatusOK, projects)
}

//
// DRAFT
//

type draftRequest struct {
	Draft *draft.Draft `json:"draft"`

	// used when no draft is sent yet
	Items   int `json:"items"`
	Periods int `json:"periods"`

	Resize *struct {
		Items   int `json:"items"`
		Periods int `json:"periods"`
	} `json:"resize"`
	Set []struct {
		Key    string `json:"key"`
		Period int    `json:"period"`
		Value  Money  `json:"value"`
	} `json:"set"`
	Clear []string `json:"clear"`
}

type draftResponse struct {
	Draft      *draft.Draft       `json:"draft"`
	Check      draft.Result       `json:"check"`
	ItemTotals map[string]float64 `json:"item_totals"`
	GrandTotal float64            `json:"grand_total"`
}

// EditDraft applies the requested edits to a registration draft and
// returns it checked. Nothing is stored.
func EditDraft(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, http.StatusBadRequest, "dados inválidos")
		return
	}

	d := req.Draft
	if d == nil {
		var err error
		if d, err = draft.New(req.Items, req.Periods); err != nil {
			renderError(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	d.Normalize()

	if req.Resize != nil {
		if err := d.Resize(req.Resize.Items, req.Resize.Periods); err != nil {
			renderError(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	for _, s := range req.Set {
		if err := d.Set(s.Key, s.Period, float64(s.Value)); err != nil {
			renderError(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	for _, key := range req.Clear {
		if err := d.ClearItem(key); err != nil {
			renderError(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	render(c, http.StatusOK, describeDraft(d))
}

func describeDraft(d *draft.Draft) draftResponse {
	totals := make(map[string]float64, len(d.Items))
	for _, it := range d.Items {
		totals[it.Key] = it.Total()
	}
	return draftResponse{
		Draft:      d,
		Check:      d.Check(),
		ItemTotals: totals,
		GrandTotal: d.GrandTotal(),
	}
}

//
// CREATE
//

// CreateProject stores a checked draft. Warnings do not block saving.
func CreateProject(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		renderError(c, http.StatusUnauthorized, "login necessário")
		return
	}

	var d draft.Draft
	if err := c.ShouldBindJSON(&d); err != nil {
		renderError(c, http.StatusBadRequest, "dados inválidos")
		return
	}
	d.Normalize()

	res := d.Check()
	if !res.OK() {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "cadastro inválido", "check": res})
		return
	}
	start, end, err := d.Dates()
	if err != nil {
		renderError(c, http.StatusBadRequest, "data inválida")
		return
	}

	in := database.CreateProjectInput{
		ProjectFields: database.ProjectFields{
			Name:           strings.TrimSpace(d.Name),
			ContractNumber: strings.TrimSpace(d.ContractNumber),
			ServiceOrder:   strings.TrimSpace(d.ServiceOrder),
			Client:         strings.TrimSpace(d.Client),
			Contractor:     strings.TrimSpace(d.Contractor),
			TotalValue:     d.TotalValue,
			PlannedStart:   start,
			PlannedEnd:     end,
			PlannedMonths:  d.PlannedMonths,
			NumPeriods:     d.NumPeriods,
		},
	}
	for _, it := range d.Items {
		in.Items = append(in.Items, database.ItemInput{Description: it.Description, Planned: it.Planned})
	}

	project, err := database.CreateProject(database.DB, user.ID, in)
	if err != nil {
		renderStoreError(c, err)
		return
	}

	database.CreateAuditLog(database.DB, user.ID, database.EntityProject, project.ID, "create",
		fmt.Sprintf("Obra %q cadastrada com %d itens e %d medições", project.Name, len(in.Items), project.NumPeriods))

	render(c, http.StatusCreated, gin.H{"project": project, "warnings": res.Warnings})
}

//
// READ
//

// loadProject fetches the :id project and checks the current user may
// use it. It renders the error itself and returns false on failure.
func loadProject(c *gin.Context) (*models.Project, models.User, bool) {
	user, ok := currentUser(c)
	if !ok {
		renderError(c, http.StatusUnauthorized, "login necessário")
		return nil, user, false
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return nil, user, false
	}

	project, err := database.GetProject(database.DB, id)
	if err != nil {
		renderStoreError(c, err)
		return nil, user, false
	}
	if user.Role != models.RoleAdmin && project.UserID != user.ID {
		renderError(c, http.StatusForbidden, "acesso negado")
		return nil, user, false
	}
	return project, user, true
}

func GetProject(c *gin.Context) {
	project, _, ok := loadProject(c)
	if !ok {
		return
	}
	render(c, http.StatusOK, project)
}

//
// UPDATE
//

type projectForm struct {
	Name           string          `json:"name"`
	ContractNumber string          `json:"contract_number"`
	ServiceOrder   string          `json:"service_order"`
	Client         string          `json:"client"`
	Contractor     string          `json:"contractor"`
	TotalValue     Money           `json:"total_value"`
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date"`
	PlannedMonths  int             `json:"planned_months"`
	ActualMonths   *int            `json:"actual_months"`
	NumPeriods     int             `json:"num_periods"`
	Descriptions   map[uint]string `json:"descriptions"`
}

func (f projectForm) check() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: o nome da obra é obrigatório", validate.ErrInvalid)
	}
	if f.ContractNumber != "" {
		if err := validate.ContractNumber(f.ContractNumber); err != nil {
			return err
		}
	}
	if err := validate.Money(float64(f.TotalValue)); err != nil {
		return err
	}
	if f.NumPeriods < 1 || f.NumPeriods > draft.MaxPeriods {
		return fmt.Errorf("%w: quantidade de medições inválida", validate.ErrInvalid)
	}
	if f.ActualMonths != nil && *f.ActualMonths < 0 {
		return fmt.Errorf("%w: duração real inválida", validate.ErrInvalid)
	}
	for _, desc := range f.Descriptions {
		if strings.TrimSpace(desc) == "" {
			return fmt.Errorf("%w: a descrição do item é obrigatória", validate.ErrInvalid)
		}
	}
	return nil
}

func optionalDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := validate.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func UpdateProject(c *gin.Context) {
	project, user, ok := loadProject(c)
	if !ok {
		return
	}

	var form projectForm
	if err := c.ShouldBindJSON(&form); err != nil {
		renderError(c, http.StatusBadRequest, "dados inválidos")
		return
	}
	if err := form.check(); err != nil {
		renderStoreError(c, err)
		return
	}
	start, err := optionalDate(form.StartDate)
	if err != nil {
		renderStoreError(c, err)
		return
	}
	end, err := optionalDate(form.EndDate)
	if err != nil {
		renderStoreError(c, err)
		return
	}

	descriptions := make(map[uint]string, len(form.Descriptions))
	for id, desc := range form.Descriptions {
		descriptions[id] = strings.TrimSpace(desc)
	}

	updated, err := database.UpdateProject(database.DB, project.ID, database.UpdateProjectInput{
		ProjectFields: database.ProjectFields{
			Name:           strings.TrimSpace(form.Name),
			ContractNumber: strings.TrimSpace(form.ContractNumber),
			ServiceOrder:   strings.TrimSpace(form.ServiceOrder),
			Client:         strings.TrimSpace(form.Client),
			Contractor:     strings.TrimSpace(form.Contractor),
			TotalValue:     float64(form.TotalValue),
			PlannedStart:   start,
			PlannedEnd:     end,
			PlannedMonths:  form.PlannedMonths,
			NumPeriods:     form.NumPeriods,
		},
		ActualMonths: form.ActualMonths,
		Descriptions: descriptions,
	})
	if err != nil {
		renderStoreError(c, err)
		return
	}

	database.CreateAuditLog(database.DB, user.ID, database.EntityProject, project.ID, "update",
		fmt.Sprintf("Obra %q atualizada", updated.Name))

	render(c, http.StatusOK, updated)
}

type plannedForm struct {
	Values map[uint]map[int]Money `json:"values"`
}

// UpdatePlannedValues rewrites planned values of some items and periods.
func UpdatePlannedValues(c *gin.Context) {
	project, user, ok := loadProject(c)
	if !ok {
		return
	}

	var form plannedForm
	if err := c.ShouldBindJSON(&form); err != nil || len(form.Values) == 0 {
		renderError(c, http.StatusBadRequest, "dados inválidos")
		return
	}

	grid := make(map[uint]map[int]float64, len(form.Values))
	for itemID, periods := range form.Values {
		grid[itemID] = make(map[int]float64, len(periods))
		for period, v := range periods {
			if v < 0 {
				renderError(c, http.StatusBadRequest, "valores previstos não podem ser negativos")
				return
			}
			grid[itemID][period] = float64(v)
		}
	}

	if err := database.UpdatePlannedValues(database.DB, project.ID, grid); err != nil {
		renderStoreError(c, err)
		return
	}

	database.CreateAuditLog(database.DB, user.ID, database.EntityProject, project.ID, "update",
		fmt.Sprintf("Previsões de %d itens atualizadas", len(grid)))

	updated, err := database.GetProject(database.DB, project.ID)
	if err != nil {
		renderStoreError(c, err)
		return
	}
	render(c, http.StatusOK, updated)
}
