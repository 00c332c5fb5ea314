package events

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/restobar/pos/models"
)

// Event types pushed to connected dashboards.
const (
	EventOrderCreate = "order_create"
	EventOrderUpdate = "order_update"
	EventOrderDelete = "order_delete"
	EventOrderPaid   = "order_paid"
	EventTableUpdate = "table_update"
	EventLowStock    = "low_stock"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub holds every connected dashboard client (cashier desk, manager view)
// and fans messages out to all of them.
type Hub struct {
	clients map[*websocket.Conn]string // conn -> role
	mutex   sync.Mutex
}

var hub = Hub{
	clients: make(map[*websocket.Conn]string),
}

// RegisterClient adds a connection with its caller role.
func RegisterClient(conn *websocket.Conn, role string) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.clients[conn] = role
}

// UnregisterClient drops and closes a connection.
func UnregisterClient(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	delete(hub.clients, conn)
	conn.Close()
}

func BroadcastOrderCreate(order models.Order) {
	broadcast(Message{Event: EventOrderCreate, Data: order})
}

func BroadcastOrderUpdate(order models.Order) {
	broadcast(Message{Event: EventOrderUpdate, Data: order})
}

func BroadcastOrderDelete(orderID uint) {
	broadcast(Message{Event: EventOrderDelete, Data: map[string]uint{"order_id": orderID}})
}

func BroadcastOrderPaid(bill models.ClosedBill) {
	broadcast(Message{Event: EventOrderPaid, Data: bill})
}

func BroadcastTableUpdate(table models.Table) {
	broadcast(Message{Event: EventTableUpdate, Data: table})
}

func BroadcastLowStock(item models.Item) {
	broadcast(Message{Event: EventLowStock, Data: map[string]interface{}{
		"item_id":   item.ID,
		"name":      item.Name,
		"stock":     item.Stock,
		"min_stock": item.MinStock,
	}})
}

func broadcast(msg Message) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("events: marshal %s: %v", msg.Event, err)
		return
	}

	for conn := range hub.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("events: write to client failed, dropping: %v", err)
			delete(hub.clients, conn)
			conn.Close()
		}
	}
}
