package database

import (
	"math"
	"time"

	"github.com/meljneres/sistema-obras/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	demoUsername = "engenheiro1"
	demoPassword = "senha123"
	demoContract = "2023/0001"
	demoPeriods  = 12
)

var demoItems = []struct {
	description string
	value       float64
}{
	{"Fundação", 1000000},
	{"Estrutura", 2000000},
	{"Acabamento", 1500000},
	{"Instalações", 500000},
}

// seedDemo creates the demo engineer and the sample project once.
func seedDemo(db *gorm.DB) {
	var user models.User
	err := db.Where("username = ?", demoUsername).First(&user).Error
	if err != nil {
		created, cerr := CreateUser(db, demoUsername, demoPassword, models.RoleEngineer)
		if cerr != nil {
			zap.L().Error("failed to create demo user", zap.Error(cerr))
			return
		}
		user = *created
	}

	var count int64
	if err := db.Model(&models.Project{}).Where("contract_number = ?", demoContract).Count(&count).Error; err != nil {
		zap.L().Error("failed to check demo project", zap.Error(err))
		return
	}
	if count > 0 {
		return
	}

	start := time.Now().UTC().Truncate(24 * time.Hour)
	end := start.AddDate(0, 0, 365)

	in := CreateProjectInput{
		ProjectFields: ProjectFields{
			Name:           "Construção Edifício Sede",
			ContractNumber: demoContract,
			ServiceOrder:   "OS-001/2023",
			Client:         "Empresa Contratante LTDA",
			Contractor:     "Construtora XYZ LTDA",
			TotalValue:     5000000,
			PlannedStart:   &start,
			PlannedEnd:     &end,
			PlannedMonths:  demoPeriods,
			NumPeriods:     demoPeriods,
		},
	}
	for _, it := range demoItems {
		in.Items = append(in.Items, ItemInput{
			Description: it.description,
			Planned:     spread(it.value, demoPeriods),
		})
	}

	if _, err := CreateProject(db, user.ID, in); err != nil {
		zap.L().Error("failed to seed demo project", zap.Error(err))
		return
	}
	zap.L().Info("seeded demo project", zap.String("contract", demoContract))
}

// spread splits value evenly over n periods in cents; the last period
// takes the remainder so the parts add up to value.
func spread(value float64, n int) map[int]float64 {
	cents := int64(math.Round(value * 100))
	part := cents / int64(n)
	out := make(map[int]float64, n)
	for p := 1; p <= n; p++ {
		c := part
		if p == n {
			c = cents - part*int64(n-1)
		}
		out[p] = float64(c) / 100
	}
	return out
}
