package logger

import "go.uber.org/zap"

// 予約処理のログで共通に使うフィールド

func BookingID(id string) zap.Field {
	return zap.String("booking_id", id)
}

func ShowID(id string) zap.Field {
	return zap.String("show_id", id)
}

func UserID(id string) zap.Field {
	return zap.String("user_id", id)
}

func Status(status string) zap.Field {
	return zap.String("status", status)
}

func PaymentReference(ref string) zap.Field {
	return zap.String("payment_reference", ref)
}

func SeatIDs(ids []string) zap.Field {
	return zap.Strings("seat_ids", ids)
}
