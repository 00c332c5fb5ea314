package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/restobar/pos/services"
	"github.com/restobar/pos/utils"
)

type OrderController struct {
	Service *services.OrderService
}

func NewOrderController(service *services.OrderService) *OrderController {
	return &OrderController{Service: service}
}

// CreateOrder -> open an order on a free table
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var body struct {
		Table uint                   `json:"table" binding:"required"`
		Items []services.ItemRequest `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Service.CreateOrder(body.Table, body.Items, currentUser(c))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.InfoLogger.Printf("Order %s created on table %d", order.Reference(), order.TableID)
	utils.RespondJSON(c, http.StatusCreated, "Commande créée avec succès", order)
}

// AddItems -> append items to a live order, printing only the new lines
func (oc *OrderController) AddItems(c *gin.Context) {
	orderID, err := parseID(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var body struct {
		Items []services.ItemRequest `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Service.AddItems(orderID, body.Items, currentUser(c))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Articles ajoutés à la commande", order)
}

// RemoveItems -> take quantities off an order; removing everything deletes
// the order and frees its table
func (oc *OrderController) RemoveItems(c *gin.Context) {
	orderID, err := parseID(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var body struct {
		Items []services.RemovalRequest `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, deleted, err := oc.Service.RemoveItems(orderID, body.Items, currentUser(c))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	if deleted {
		utils.RespondJSON(c, http.StatusOK, "Commande supprimée, table libérée", gin.H{"order_id": orderID})
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Articles retirés de la commande", order)
}

// ApplyDiscount -> percentage discount from the allowed set
func (oc *OrderController) ApplyDiscount(c *gin.Context) {
	orderID, err := parseID(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var body struct {
		Percentage int `json:"percentage" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Service.ApplyDiscount(orderID, body.Percentage)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Remise appliquée", order)
}

// Facture -> print the bill, bounded per user by role
func (oc *OrderController) Facture(c *gin.Context) {
	orderID, err := parseID(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Service.Facture(orderID, currentUser(c))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Facture imprimée", order)
}

// PayOrder -> collect payment, snapshot the bill, free the table
func (oc *OrderController) PayOrder(c *gin.Context) {
	orderID, err := parseID(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var body struct {
		PaymentMethod string `json:"payment_method" binding:"required"`
		// Zero is a legal amount for a fully discounted order, so the
		// field cannot carry binding:"required".
		AmountReceived float64 `json:"amount_received"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if body.AmountReceived < 0 {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("montant reçu invalide"))
		return
	}

	bill, err := oc.Service.Pay(orderID, body.PaymentMethod, body.AmountReceived, currentUser(c))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.InfoLogger.Printf("Order %d paid, invoice %s", bill.OrderRef, bill.InvoiceNumber)
	utils.RespondJSON(c, http.StatusOK, "Paiement enregistré", bill)
}

// GetAllOrders -> list live orders with their lines
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	orders, err := oc.Service.ListOrders()
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// GetOrderByID -> detail of one order
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	orderID, err := parseID(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Service.GetOrder(orderID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// GetOrderByTable -> the active order bound to a table
func (oc *OrderController) GetOrderByTable(c *gin.Context) {
	tableID, err := parseID(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Service.OrderByTable(tableID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}
