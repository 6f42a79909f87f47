package user

import (
	"reflect"

	"github.com/GoCodeAlone/modkit"
	"github.com/GoCodeAlone/modkit/config"
	"github.com/GoCodeAlone/modkit/internal/i18n"
)

// Tokens of the user module. RepositoryToken must be registered by the
// application before the module is processed.
const (
	RepositoryToken modkit.Token = "UserRepository"
	ServiceToken    modkit.Token = "UserService"
	ControllerToken modkit.Token = "UserController"
)

// Module groups the user service and controller under /users.
type Module struct{}

// Define declares the module, its service and its controller in meta.
// The service depends on RepositoryToken and the i18n catalog; the
// controller additionally needs the application config.
func Define(meta *modkit.Metadata) error {
	if err := modkit.DefineService[Service](meta, NewService,
		modkit.WithToken(ServiceToken),
		modkit.Inject(0, RepositoryToken),
		modkit.Inject(1, modkit.TokenFor[i18n.Catalog]()),
	); err != nil {
		return err
	}
	if err := modkit.DefineController[Controller](meta, NewController,
		modkit.WithToken(ControllerToken),
		modkit.Inject(0, ServiceToken),
		modkit.Inject(1, modkit.TokenFor[i18n.Catalog]()),
		modkit.Inject(2, modkit.TokenFor[config.AppConfig]()),
	); err != nil {
		return err
	}
	return modkit.DefineModule[Module](meta, modkit.ModuleDescriptor{
		Providers:   []reflect.Type{modkit.TypeOf[Service]()},
		Controllers: []reflect.Type{modkit.TypeOf[Controller]()},
		Routes:      []modkit.Route{modkit.RouteTo[Controller]("/users")},
	})
}

// Translations are the module's messages, registered by NewService.
var Translations = i18n.Table{
	i18n.English: {
		"userExists":   "User already exists",
		"created":      "User created successfully",
		"updated":      "User updated successfully",
		"found":        "User found successfully",
		"foundAll":     "Users retrieved successfully",
		"userNotFound": "User not found",
	},
	i18n.Vietnamese: {
		"userExists":   "Người dùng đã tồn tại",
		"created":      "Tạo người dùng thành công",
		"updated":      "Cập nhật người dùng thành công",
		"found":        "Tìm thấy người dùng",
		"foundAll":     "Lấy danh sách người dùng thành công",
		"userNotFound": "Không tìm thấy người dùng",
	},
}
