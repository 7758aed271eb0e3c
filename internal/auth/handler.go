package auth

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yourusername/idgate/internal/identifier"
	"github.com/yourusername/idgate/internal/logging"
)

type loginRequest struct {
	User string `json:"user" form:"user" binding:"required,nonblank"`
}

var registerOnce sync.Once

// registerValidators は Gin の validator に nonblank ルールと JSON 名の解決を登録します。
// 登録できない場合は nonblank を使うバインドが必ず失敗するため、起動時に停止します。
func registerValidators() {
	registerOnce.Do(func() {
		if err := configureValidator(binding.Validator.Engine()); err != nil {
			panic(err)
		}
	})
}

func configureValidator(engine any) error {
	v, ok := engine.(*validator.Validate)
	if !ok {
		return fmt.Errorf("unsupported validator engine: %T", engine)
	}
	if err := v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		return fmt.Errorf("failed to register nonblank validation: %w", err)
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return nil
}

// RegisterRoutes は認証系のルートを登録します。
func (m *Manager) RegisterRoutes(r gin.IRoutes) {
	r.POST("/login", m.Login)
	r.GET("/session", m.Session)
	r.POST("/logout", m.Logout)
}

// Login は /login のハンドラーです。
func (m *Manager) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": bindingErrors(err, req.User)})
		return
	}

	issued, err := m.Issue(c.Request.Context(), req.User)
	if err != nil {
		var vErr *ValidationError
		switch {
		case errors.As(err, &vErr):
			c.JSON(http.StatusBadRequest, gin.H{"errors": vErr.Fields})
		case errors.Is(err, identifier.ErrUnclassifiable):
			c.JSON(http.StatusBadRequest, gin.H{"error": identifier.ErrUnclassifiable.Error()})
		default:
			m.logger.Error("セッションの保存に失敗しました",
				zap.String("request_id", logging.RequestID(c)),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist session"})
		}
		return
	}

	m.setSessionCookie(c, issued.Token)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Session は /session のハンドラーです。
func (m *Manager) Session(c *gin.Context) {
	token := sessionToken(c)
	record, ok, err := m.Verify(c.Request.Context(), token)
	if err != nil {
		// 読み込みに失敗した場合は未認証として扱う
		m.logger.Warn("セッションの読み込みに失敗しました",
			zap.String("request_id", logging.RequestID(c)),
			zap.Error(err),
		)
	}
	if err != nil || !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"identifier":    record.Identifier,
		"type":          record.Kind,
	})
}

// Logout は /logout のハンドラーです。削除に失敗してもクッキーは消し、常に成功を返します。
func (m *Manager) Logout(c *gin.Context) {
	if token := sessionToken(c); token != "" {
		if err := m.Revoke(c.Request.Context(), token); err != nil {
			m.logger.Error("セッションの削除に失敗しました",
				zap.String("request_id", logging.RequestID(c)),
				zap.Error(err),
			)
		}
	}

	m.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// bindingErrors はバインド時のエラーを項目エラーの一覧に変換します。
// JSON として読めない本文も user 未指定として扱います。
func bindingErrors(err error, value string) []FieldError {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return missingUserError("").Fields
	}
	fields := make([]FieldError, 0, len(vErrs))
	for _, fe := range vErrs {
		fields = append(fields, FieldError{
			Type:     "field",
			Value:    strings.TrimSpace(value),
			Msg:      fe.Field() + " required",
			Path:     fe.Field(),
			Location: "body",
		})
	}
	return fields
}
