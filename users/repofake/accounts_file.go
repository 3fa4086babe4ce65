package fakeuserrepo

import (
	"os"

	"github.com/jrsteele09/go-oidc-grants/users"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AccountEntry is one account of an accounts file. Password is plain text and is hashed on load.
type AccountEntry struct {
	ID        string   `yaml:"id"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	Email     string   `yaml:"email"`
	FirstName string   `yaml:"firstName"`
	LastName  string   `yaml:"lastName"`
	Roles     []string `yaml:"roles"`
	Verified  bool     `yaml:"verified"`
}

type accountsFile struct {
	Users []AccountEntry `yaml:"users"`
}

// LoadFile adds every account listed in the YAML file at path.
//
//	users:
//	  - username: alice
//	    password: Passw0rd!
//	    roles: [admin]
func (ur *FakeUserRepo) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.Wrap(err, "[FakeUserRepo.LoadFile] read accounts")
	}
	var file accountsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, errors.Wrap(err, "[FakeUserRepo.LoadFile] parse accounts")
	}
	for i, entry := range file.Users {
		if entry.Username == "" || entry.Password == "" {
			return i, errors.Errorf("[FakeUserRepo.LoadFile] account %d needs a username and password", i)
		}
		account := &users.Account{
			ID:        entry.ID,
			Username:  entry.Username,
			Email:     entry.Email,
			FirstName: entry.FirstName,
			LastName:  entry.LastName,
			Roles:     entry.Roles,
			Verified:  entry.Verified,
		}
		if err := ur.AddUser(account, entry.Password); err != nil {
			return i, err
		}
	}
	return len(file.Users), nil
}
