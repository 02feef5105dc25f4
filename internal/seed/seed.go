package seed

import (
	"context"
	"fmt"

	"github.com/gosimple/slug"

	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type account struct {
	email, password, role, name, phone, address string
}

var accounts = []account{
	{"admin@example.com", "admin123", models.RoleAdmin, "Admin", "0901234567", "123 Nguyễn Huệ, Q1, TP.HCM"},
	{"staff@example.com", "staff123", models.RoleStaff, "Nhân Viên", "0907654321", "456 Lê Lợi, Q1, TP.HCM"},
}

var vouchers = []models.Voucher{
	{Code: "GIAM50K", Discount: 50_000, MinOrder: 500_000, Type: models.VoucherFixed, Active: true},
	{Code: "SALE20", Discount: 20, MinOrder: 300_000, Type: models.VoucherPercent, Active: true},
	{Code: "FREESHIP", Discount: 30_000, MinOrder: 0, Type: models.VoucherShipping, Active: true},
	{Code: "WELCOME10", Discount: 10, MinOrder: 200_000, Type: models.VoucherPercent, Active: true},
}

func colorImages(pairs ...string) map[string]string {
	out := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out[pairs[i]] = pairs[i+1]
	}
	return out
}

var products = []models.Product{
	{
		Name: "Áo thun Basic", Price: 199_000, OldPrice: 299_000, Category: "Áo thun",
		Images:      []string{"/Images/thuntrang.png", "/Images/thunden.png", "/Images/thunau.png"},
		Description: "Áo thun cotton mềm, phù hợp mọi lứa tuổi. Chất liệu thấm hút mồ hôi tốt.",
		Stock:       50, Sizes: []string{"S", "M", "L", "XL"}, Colors: []string{"Trắng", "Đen", "Nâu"},
		ColorImages: colorImages("Trắng", "/Images/thuntrang.png", "Đen", "/Images/thunden.png", "Nâu", "/Images/thunau.png"),
		Sold:        340, Featured: true,
	},
	{
		Name: "Áo khoác Hoodie", Price: 399_000, OldPrice: 599_000, Category: "Áo khoác",
		Images:      []string{"/Images/hoodiexam.png", "/Images/hoodiexanhnavy.png", "/Images/hoodienau.png"},
		Description: "Hoodie ấm, thiết kế trẻ trung. Form rộng thoải mái.",
		Stock:       30, Sizes: []string{"M", "L", "XL", "XXL"}, Colors: []string{"Xám", "Xanh navy", "Nâu"},
		ColorImages: colorImages("Xám", "/Images/hoodiexam.png", "Xanh navy", "/Images/hoodiexanhnavy.png", "Nâu", "/Images/hoodienau.png"),
		Sold:        156, Featured: true,
	},
	{
		Name: "Quần Jeans Nam", Price: 549_000, OldPrice: 749_000, Category: "Quần",
		Images:      []string{"/Images/jeanxanhdam.png", "/Images/jeanxanhnhat.png", "/Images/jeanden.png"},
		Description: "Quần jeans co giãn, ôm vừa. Chất liệu denim cao cấp.",
		Stock:       20, Sizes: []string{"28", "29", "30", "31", "32"}, Colors: []string{"Xanh đậm", "Xanh nhạt", "Đen"},
		ColorImages: colorImages("Xanh đậm", "/Images/jeanxanhdam.png", "Xanh nhạt", "/Images/jeanxanhnhat.png", "Đen", "/Images/jeanden.png"),
		Sold:        445, Featured: true,
	},
	{
		Name: "Áo sơ mi Công sở", Price: 279_000, OldPrice: 399_000, Category: "Áo sơ mi",
		Images:      []string{"/Images/somitrang.png", "/Images/somixanh.png", "/Images/sominau.png"},
		Description: "Áo sơ mi lịch sự, phù hợp văn phòng.",
		Stock:       45, Sizes: []string{"S", "M", "L", "XL"}, Colors: []string{"Trắng", "Xanh nhạt", "Nâu"},
		ColorImages: colorImages("Trắng", "/Images/somitrang.png", "Xanh nhạt", "/Images/somixanh.png", "Nâu", "/Images/sominau.png"),
		Sold:        189, Featured: true,
	},
	{
		Name: "Váy dài", Price: 459_000, OldPrice: 599_000, Category: "Váy",
		Images:      []string{"/Images/vaybe.png", "/Images/vayxanh.png"},
		Description: "Váy dài phong cách vintage, sang trọng.",
		Stock:       15, Sizes: []string{"S", "M", "L"}, Colors: []string{"Be", "Xanh"},
		ColorImages: colorImages("Be", "/Images/vaybe.png", "Xanh", "/Images/vayxanh.png"),
		Sold:        78,
	},
	{
		Name: "Quần short Nam", Price: 189_000, OldPrice: 259_000, Category: "Quần",
		Images:      []string{"/Images/shortden.png", "/Images/shortxanh.png"},
		Description: "Quần short thoáng mát, phù hợp tập luyện.",
		Stock:       60, Sizes: []string{"M", "L", "XL"}, Colors: []string{"Đen", "Xanh"},
		ColorImages: colorImages("Đen", "/Images/shortden.png", "Xanh", "/Images/shortxanh.png"),
		Sold:        567,
	},
	{
		Name: "Áo len phong cách cho nam", Price: 789_000, OldPrice: 999_000, Category: "Áo len",
		Images:      []string{"/Images/lenxam.png", "/Images/lenden.png", "/Images/lennavy.png"},
		Description: "Áo len cashmere cao cấp, giữ ấm tốt.",
		Stock:       25, Sizes: []string{"S", "M", "L"}, Colors: []string{"Xám", "Đen", "Navy"},
		ColorImages: colorImages("Xám", "/Images/lenxam.png", "Đen", "/Images/lenden.png", "Navy", "/Images/lennavy.png"),
		Sold:        123,
	},
	{
		Name: "Áo Body Giữ Nhiệt Bamboo Cổ Tròn", Price: 329_000, OldPrice: 429_000, Category: "Áo body",
		Images:      []string{"/Images/bodytrang.png", "/Images/bodyden.png"},
		Description: "Áo Body Giữ Nhiệt Bamboo Cổ Tròn thanh lịch, dễ phối đồ.",
		Stock:       35, Sizes: []string{"S", "M", "L"}, Colors: []string{"Trắng", "Đen"},
		ColorImages: colorImages("Trắng", "/Images/bodytrang.png", "Đen", "/Images/bodyden.png"),
		Sold:        98,
	},
}

// Run fills an empty database with staff accounts, vouchers and the starter catalog.
// A database that already has users is left untouched.
func Run(ctx context.Context, r *repo.GormRepo) error {
	logger := logging.FromContext(ctx).With("svc", "seed")

	n, err := r.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		logger.Debug("database already seeded", "users", n)
		return nil
	}

	return r.Transaction(ctx, func(tx *repo.GormRepo) error {
		for _, a := range accounts {
			pw, err := hash.HashPassword(a.password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			u := &models.User{
				Email: a.email, PasswordHash: pw, Role: a.role,
				Name: a.name, Phone: a.phone, Address: a.address,
			}
			if err := tx.CreateUser(ctx, u); err != nil {
				return fmt.Errorf("create %s: %w", a.email, err)
			}
		}

		for i := range vouchers {
			v := vouchers[i]
			if err := tx.UpsertVoucher(ctx, &v); err != nil {
				return fmt.Errorf("upsert voucher %s: %w", v.Code, err)
			}
		}

		for i := range products {
			p := products[i]
			p.Slug = slug.Make(p.Name)
			p.Image = p.Images[0]
			if _, err := tx.CreateProduct(ctx, &p); err != nil {
				return fmt.Errorf("create product %s: %w", p.Name, err)
			}
		}

		logger.Info("database seeded", "users", len(accounts), "vouchers", len(vouchers), "products", len(products))
		return nil
	})
}
