package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"mealplanner/logging"
	"mealplanner/models"
	"mealplanner/utils"

	"gorm.io/gorm"
)

// Mailer sends a plain-text email; SESMailer implements it.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type ShoppingListService struct {
	db     *gorm.DB
	mailer Mailer
}

// NewShoppingListService: mailer may be nil, which disables Send.
func NewShoppingListService(db *gorm.DB, mailer Mailer) *ShoppingListService {
	return &ShoppingListService{db: db, mailer: mailer}
}

// ShoppingItemInput names the ingredient by id, or by name (created when unknown).
type ShoppingItemInput struct {
	IngredientID uint    `json:"ingredient_id"`
	Name         string  `json:"name"`
	Quantity     float64 `json:"quantity" binding:"gt=0"`
	Unit         string  `json:"unit"`
}

type ShoppingListInput struct {
	Name  string              `json:"name"`
	Items []ShoppingItemInput `json:"items" binding:"dive"`
}

type ShoppingItemUpdate struct {
	Quantity *float64 `json:"quantity" binding:"omitempty,gt=0"`
	Unit     *string  `json:"unit"`
}

func (s *ShoppingListService) List(ctx context.Context, userID uint) ([]models.ShoppingList, error) {
	var lists []models.ShoppingList
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Ingredient").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&lists).Error
	return lists, err
}

func (s *ShoppingListService) Get(ctx context.Context, userID, id uint) (*models.ShoppingList, error) {
	var list models.ShoppingList
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Ingredient").
		Where("id = ? AND user_id = ?", id, userID).
		First(&list).Error
	if err != nil {
		return nil, dbErr(err, "shopping list")
	}
	return &list, nil
}

func (s *ShoppingListService) Create(ctx context.Context, userID uint, in ShoppingListInput) (*models.ShoppingList, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "Shopping list"
	}
	list := models.ShoppingList{UserID: userID, Name: name}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(&list).Error; err != nil {
			return err
		}
		for _, it := range in.Items {
			if _, err := addItem(tx, list.ID, it); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, list.ID)
}

func (s *ShoppingListService) Delete(ctx context.Context, userID, id uint) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("shopping_list_id = ?", id).Delete(&models.ShoppingItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ShoppingList{}, id).Error
	})
}

func (s *ShoppingListService) AddItem(ctx context.Context, userID, listID uint, in ShoppingItemInput) (*models.ShoppingItem, error) {
	if _, err := s.Get(ctx, userID, listID); err != nil {
		return nil, err
	}
	var item *models.ShoppingItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		item, err = addItem(tx, listID, in)
		return err
	})
	return item, err
}

func (s *ShoppingListService) UpdateItem(ctx context.Context, userID, itemID uint, in ShoppingItemUpdate) (*models.ShoppingItem, error) {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if in.Quantity != nil {
		if *in.Quantity <= 0 {
			return nil, invalid("quantity must be positive")
		}
		item.Quantity = *in.Quantity
	}
	if in.Unit != nil && strings.TrimSpace(*in.Unit) != "" {
		item.Unit = strings.TrimSpace(*in.Unit)
	}
	if err := s.db.WithContext(ctx).Omit("Ingredient").Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ShoppingListService) DeleteItem(ctx context.Context, userID, itemID uint) error {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&models.ShoppingItem{}, item.ID).Error
}

func (s *ShoppingListService) ownedItem(ctx context.Context, userID, itemID uint) (*models.ShoppingItem, error) {
	var item models.ShoppingItem
	err := s.db.WithContext(ctx).
		Preload("Ingredient").
		Joins("JOIN shopping_lists ON shopping_lists.id = shopping_items.shopping_list_id").
		Where("shopping_items.id = ? AND shopping_lists.user_id = ? AND shopping_lists.deleted_at IS NULL", itemID, userID).
		First(&item).Error
	if err != nil {
		return nil, dbErr(err, "shopping item")
	}
	return &item, nil
}

func addItem(tx *gorm.DB, listID uint, in ShoppingItemInput) (*models.ShoppingItem, error) {
	if in.Quantity <= 0 {
		return nil, invalid("quantity must be positive")
	}
	var ing models.Ingredient
	switch {
	case in.IngredientID != 0:
		if err := tx.First(&ing, in.IngredientID).Error; err != nil {
			return nil, dbErr(err, "ingredient")
		}
	case strings.TrimSpace(in.Name) != "":
		var err error
		if ing, err = ingredientByName(tx, in.Name, models.Ingredient{Unit: in.Unit}); err != nil {
			return nil, err
		}
	default:
		return nil, invalid("ingredient_id or name is required")
	}

	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = ing.Unit
	}
	item := &models.ShoppingItem{ShoppingListID: listID, IngredientID: ing.ID, Quantity: in.Quantity, Unit: unit}
	if err := tx.Omit("Ingredient").Create(item).Error; err != nil {
		return nil, err
	}
	item.Ingredient = ing
	return item, nil
}

// FromPlan sums ingredient quantities over every planned recipe occurrence
// into one new list linked to the plan.
func (s *ShoppingListService) FromPlan(ctx context.Context, userID, planID uint) (*models.ShoppingList, error) {
	var plan models.MealPlan
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", planID, userID).First(&plan).Error; err != nil {
		return nil, dbErr(err, "meal plan")
	}

	occurrences := make(map[uint]float64)
	for _, day := range plan.Data.Days {
		for _, mt := range models.MealTypes {
			occurrences[day.ByType(mt).ID]++
		}
	}
	ids := make([]uint, 0, len(occurrences))
	for id := range occurrences {
		ids = append(ids, id)
	}

	var links []models.RecipeIngredient
	if len(ids) > 0 {
		if err := s.db.WithContext(ctx).Preload("Ingredient").Where("recipe_id IN ?", ids).Find(&links).Error; err != nil {
			return nil, err
		}
	}

	totals := make(map[uint]*models.ShoppingItem)
	for _, l := range links {
		it, ok := totals[l.IngredientID]
		if !ok {
			it = &models.ShoppingItem{IngredientID: l.IngredientID, Ingredient: l.Ingredient, Unit: l.Ingredient.Unit}
			totals[l.IngredientID] = it
		}
		it.Quantity += l.Quantity * occurrences[l.RecipeID]
	}
	items := make([]*models.ShoppingItem, 0, len(totals))
	for _, it := range totals {
		it.Quantity = utils.Round2(it.Quantity)
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Ingredient.Name < items[j].Ingredient.Name })

	list := models.ShoppingList{
		UserID: userID,
		PlanID: &plan.ID,
		Name: fmt.Sprintf("Shopping list for %s to %s",
			plan.StartDate.Format(models.DateLayout), plan.EndDate.Format(models.DateLayout)),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(&list).Error; err != nil {
			return err
		}
		for _, it := range items {
			it.ShoppingListID = list.ID
			if err := tx.Omit("Ingredient").Create(it).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Uint("plan_id", plan.ID).Uint("list_id", list.ID).Int("items", len(items)).Msg("shopping list built from plan")
	return s.Get(ctx, userID, list.ID)
}

// Send emails the list to the owner's address.
func (s *ShoppingListService) Send(ctx context.Context, userID, listID uint) error {
	if s.mailer == nil {
		return &kindError{kind: ErrUnavailable, msg: "email delivery is not configured"}
	}
	list, err := s.Get(ctx, userID, listID)
	if err != nil {
		return err
	}
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return dbErr(err, "user")
	}
	return s.mailer.Send(ctx, user.Email, list.Name, FormatShoppingList(list))
}

// FormatShoppingList renders one "- name: quantity unit" line per item.
func FormatShoppingList(list *models.ShoppingList) string {
	var b strings.Builder
	b.WriteString(list.Name)
	b.WriteString("\n\n")
	if len(list.Items) == 0 {
		b.WriteString("(empty)\n")
	}
	for _, it := range list.Items {
		fmt.Fprintf(&b, "- %s: %s %s\n", it.Ingredient.Name, formatQuantity(it.Quantity), it.Unit)
	}
	return b.String()
}

func formatQuantity(q float64) string {
	s := fmt.Sprintf("%.2f", q)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
