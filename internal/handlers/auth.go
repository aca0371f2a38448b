package handlers

import (
	"net/http"
	"strings"

	"github.com/meljneres/sistema-obras/internal/database"
	"github.com/meljneres/sistema-obras/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type registerForm struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
	Role     string `form:"role" json:"role"`
}

func Register(c *gin.Context) {
	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		renderError(c, http.StatusBadRequest, "dados inválidos")
		return
	}

	form.Username = strings.TrimSpace(form.Username)
	if len(form.Username) < 3 || len(form.Password) < 6 {
		renderError(c, http.StatusBadRequest, "usuário ou senha muito curtos")
		return
	}

	role := models.UserRole(form.Role)
	if role == "" {
		role = models.RoleEngineer
	}

	// admin is never created through the form
	switch role {
	case models.RoleEngineer, models.RoleViewer:
	default:
		renderError(c, http.StatusBadRequest, "perfil inválido")
		return
	}

	var existing models.User
	if err := database.DB.Where("username = ?", form.Username).First(&existing).Error; err == nil {
		renderError(c, http.StatusConflict, "usuário já existe")
		return
	}

	user, err := database.CreateUser(database.DB, form.Username, form.Password, role)
	if err != nil {
		renderStoreError(c, err)
		return
	}
	zap.L().Info("user registered", zap.String("username", user.Username), zap.String("role", string(role)))

	render(c, http.StatusCreated, user)
}

type loginForm struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

func Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		renderError(c, http.StatusBadRequest, "dados inválidos")
		return
	}

	var user models.User
	if err := database.DB.Where("username = ?", form.Username).First(&user).Error; err != nil {
		renderError(c, http.StatusUnauthorized, "usuário ou senha inválidos")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(form.Password)); err != nil {
		renderError(c, http.StatusUnauthorized, "usuário ou senha inválidos")
		return
	}

	sess := sessions.Default(c)
	sess.Set("user_id", user.ID)
	sess.Set("role", string(user.Role))
	if err := sess.Save(); err != nil {
		renderStoreError(c, err)
		return
	}

	render(c, http.StatusOK, user)
}

func Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()
	render(c, http.StatusOK, gin.H{"logged_out": true})
}
