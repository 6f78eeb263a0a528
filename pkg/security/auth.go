package security

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"warehouse/pkg/models"
)

var jwtSecret = []byte(os.Getenv("JWT_SECRET"))

const tokenLifetime = 12 * time.Hour

func GenerateToken(operator models.Operator) (string, error) {
	claims := jwt.MapClaims{
		"userID":      operator.ID,
		"username":    operator.Username,
		"role":        operator.Role,
		"warehouseID": operator.WarehouseID,
		"exp":         time.Now().Add(tokenLifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
