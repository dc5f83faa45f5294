package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Company identifies the supplier in outgoing correspondence and on
// invoice artifacts.
type Company struct {
	Name      string `yaml:"name"`
	Address   string `yaml:"address"`
	Phone     string `yaml:"phone"`
	Email     string `yaml:"email"`
	Signature string `yaml:"signature"`
}

// DefaultCompany is used when no profile file is configured.
var DefaultCompany = Company{
	Name:      "Involexis",
	Address:   "Involexis Pvt Ltd, Pune",
	Phone:     "+91-8924506823",
	Email:     "involexis.team@gmail.com",
	Signature: "Involexis\nSales Team\nPhone: +91-8924506823\nEmail: involexis.team@gmail.com",
}

// LoadCompany reads the supplier profile from a YAML file. An empty
// path returns the built-in default profile.
func LoadCompany(path string) (Company, error) {
	if path == "" {
		return DefaultCompany, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Company{}, fmt.Errorf("read company profile: %w", err)
	}
	c := DefaultCompany
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Company{}, fmt.Errorf("parse company profile: %w", err)
	}
	if c.Name == "" {
		c.Name = DefaultCompany.Name
	}
	return c, nil
}
